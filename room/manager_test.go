package room

import (
	"sync"
	"testing"
)

func TestRoomManager_DefaultRoomCreatedEagerly(t *testing.T) {
	manager := NewRoomManager("default", DefaultSettings(), newRecordingBroadcaster(), newFakeScheduler())
	defer manager.Close()

	if manager.Count() != 1 {
		t.Fatalf("Expected 1 room at start, got %d", manager.Count())
	}

	room := manager.DefaultRoom()
	if room == nil {
		t.Fatal("DefaultRoom should not return nil")
	}
	if room.ID != "default" || !room.IsDefault {
		t.Errorf("Expected default room with ID default, got %s (default=%v)", room.ID, room.IsDefault)
	}
	if manager.DefaultRoomID() != "default" {
		t.Errorf("Expected default room ID default, got %s", manager.DefaultRoomID())
	}
}

func TestRoomManager_GetOrCreate(t *testing.T) {
	manager := NewRoomManager("default", DefaultSettings(), newRecordingBroadcaster(), newFakeScheduler())
	defer manager.Close()

	if _, exists := manager.GetRoom("lobby"); exists {
		t.Fatal("GetRoom should not find a room that was never referenced")
	}

	room := manager.GetOrCreate("lobby")
	if room == nil {
		t.Fatal("GetOrCreate should not return nil")
	}
	if room.IsDefault {
		t.Error("Only the default room should be marked as default")
	}
	if room.GetStatus() != StatusWaiting {
		t.Errorf("Expected new room to be waiting, got %s", room.GetStatus())
	}

	retrievedRoom, exists := manager.GetRoom("lobby")
	if !exists {
		t.Fatal("GetRoom should find the created room")
	}
	if retrievedRoom != room {
		t.Error("GetRoom should return the same room instance")
	}
	if manager.GetOrCreate("lobby") != room {
		t.Error("GetOrCreate should return the existing room")
	}

	rooms := manager.Rooms()
	if len(rooms) != 2 || rooms[0].ID != "default" || rooms[1].ID != "lobby" {
		t.Errorf("Expected rooms [default lobby], got %d rooms", len(rooms))
	}
}

func TestRoomManager_ConcurrentGetOrCreate(t *testing.T) {
	manager := NewRoomManager("default", DefaultSettings(), newRecordingBroadcaster(), newFakeScheduler())
	defer manager.Close()

	const workers = 16
	results := make([]*Room, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = manager.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatal("Concurrent GetOrCreate returned different rooms")
		}
	}
	if manager.Count() != 2 {
		t.Errorf("Expected 2 rooms, got %d", manager.Count())
	}
}
