package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// 同步状态常量
const (
	StateIdle    = "idle"
	StateSyncing = "syncing"
	StateFailed  = "failed"
)

// 事件常量
const (
	EventStart    = "start"
	EventComplete = "complete"
	EventFail     = "fail"
)

// ErrAlreadySyncing 已有同步在运行
var ErrAlreadySyncing = errors.New("sync already running")

// SyncStatus 同步状态
type SyncStatus struct {
	State         string     `json:"state"`
	Since         time.Time  `json:"since"`
	RunID         string     `json:"run_id,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	EntriesSynced int        `json:"entries_synced"`
	RowsRejected  int        `json:"rows_rejected"`
}

// Machine 同步状态机
type Machine struct {
	mu            sync.RWMutex
	fsm           *fsm.FSM
	status        *SyncStatus
	onStateChange func(from, to string)
}

// NewMachine 创建状态机，初始为 idle
func NewMachine(onStateChange func(from, to string)) *Machine {
	m := &Machine{
		onStateChange: onStateChange,
		status: &SyncStatus{
			State: StateIdle,
			Since: time.Now(),
		},
	}

	m.fsm = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: EventStart, Src: []string{StateIdle, StateFailed}, Dst: StateSyncing},
			{Name: EventComplete, Src: []string{StateSyncing}, Dst: StateIdle},
			{Name: EventFail, Src: []string{StateSyncing}, Dst: StateFailed},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onStateChange != nil && e.Src != e.Dst {
					m.onStateChange(e.Src, e.Dst)
				}
			},
		},
	)

	return m
}

// CurrentState 获取当前状态
func (m *Machine) CurrentState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// Status 获取状态副本
func (m *Machine) Status() SyncStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	statusCopy := *m.status
	statusCopy.State = m.fsm.Current()
	return statusCopy
}

// Begin 开始一次同步，已在同步中时返回 ErrAlreadySyncing
func (m *Machine) Begin(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.fsm.Can(EventStart) {
		return ErrAlreadySyncing
	}
	if err := m.trigger(EventStart); err != nil {
		return err
	}
	m.status.RunID = runID
	return nil
}

// Complete 同步成功
func (m *Machine) Complete(accepted, rejected int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.trigger(EventComplete); err != nil {
		return err
	}
	now := m.status.Since
	m.status.LastSuccessAt = &now
	m.status.LastError = ""
	m.status.EntriesSynced = accepted
	m.status.RowsRejected = rejected
	return nil
}

// Fail 同步失败
func (m *Machine) Fail(cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.trigger(EventFail); err != nil {
		return err
	}
	if cause != nil {
		m.status.LastError = cause.Error()
	}
	return nil
}

// trigger 调用方需持有写锁
func (m *Machine) trigger(event string) error {
	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}
	m.status.State = m.fsm.Current()
	m.status.Since = time.Now()
	return nil
}
