// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Scheduler 是房间依赖的定时器抽象，TimerManager 为其实现
type Scheduler interface {
	// AddTimer fires callback after delay, then every interval when interval > 0.
	AddTimer(delay time.Duration, interval time.Duration, callback func()) int64
	// RemoveTimer cancels a timer. Unknown or already fired ids are ignored.
	RemoveTimer(timerId int64)
}

type TimerTask struct {
	Id       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type TimerQueue []*TimerTask

func (q TimerQueue) Len() int { return len(q) }

func (q TimerQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q TimerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *TimerQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*TimerTask)
	task.index = n
	*q = append(*q, task)
}

func (q *TimerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// TimerManager 用最小堆管理所有房间的定时任务，由单个 goroutine 按 resolution 精度驱动。
// 到期的回调在独立 goroutine 中执行，回调自身负责串行化（见 room.Room.post）。
type TimerManager struct {
	queue      TimerQueue
	tasks      map[int64]*TimerTask
	mutex      sync.Mutex
	nextId     int64
	resolution time.Duration
	closeChan  chan struct{}
	closeOnce  sync.Once
}

func NewTimerManager(resolution time.Duration) *TimerManager {
	if resolution <= 0 {
		resolution = 100 * time.Millisecond
	}
	manager := &TimerManager{
		queue:      make(TimerQueue, 0),
		tasks:      make(map[int64]*TimerTask),
		nextId:     1,
		resolution: resolution,
		closeChan:  make(chan struct{}),
	}
	heap.Init(&manager.queue)
	go manager.process()
	return manager
}

func (m *TimerManager) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &TimerTask{
		Id:       m.nextId,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextId++

	heap.Push(&m.queue, task)
	m.tasks[task.Id] = task
	return task.Id
}

func (m *TimerManager) RemoveTimer(timerId int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task, ok := m.tasks[timerId]
	if !ok {
		return
	}
	delete(m.tasks, timerId)
	if task.index >= 0 {
		heap.Remove(&m.queue, task.index)
	}
}

// Len returns the number of pending timers.
func (m *TimerManager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.tasks)
}

// Stop 停止驱动协程，未触发的任务全部丢弃
func (m *TimerManager) Stop() {
	m.closeOnce.Do(func() {
		close(m.closeChan)
	})
}

func (m *TimerManager) process() {
	ticker := time.NewTicker(m.resolution)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			for _, cb := range m.due(now) {
				go cb()
			}
		case <-m.closeChan:
			m.mutex.Lock()
			m.queue = m.queue[:0]
			m.tasks = make(map[int64]*TimerTask)
			m.mutex.Unlock()
			return
		}
	}
}

// due pops every task whose deadline passed and reschedules periodic ones.
func (m *TimerManager) due(now time.Time) []func() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var fired []func()
	for m.queue.Len() > 0 {
		task := m.queue[0]
		if task.Execute.After(now) {
			break
		}

		heap.Pop(&m.queue)
		fired = append(fired, task.Callback)

		if task.Interval > 0 {
			task.Execute = task.Execute.Add(task.Interval)
			if !task.Execute.After(now) {
				task.Execute = now.Add(task.Interval)
			}
			heap.Push(&m.queue, task)
		} else {
			delete(m.tasks, task.Id)
		}
	}
	return fired
}
