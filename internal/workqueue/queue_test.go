package workqueue

import (
	"errors"
	"testing"
	"time"
)

func TestSubmitRunsSuccessContinuation(t *testing.T) {
	wake := make(chan struct{}, 1)
	q := New(2, wake)
	defer q.Close()

	resultCh := make(chan any, 1)
	q.Submit(Task{
		Run: func() (any, error) { return 42, nil },
		OnSuccess: func(out any) {
			resultCh <- out
		},
	})

	select {
	case <-wake:
	case <-time.After(time.Second):
		t.Fatal("worker did not signal wakeup after completing task")
	}

	q.ProcessDone()

	select {
	case v := <-resultCh:
		if v != 42 {
			t.Fatalf("got %v, want 42", v)
		}
	default:
		t.Fatal("OnSuccess was not invoked by ProcessDone")
	}
}

func TestSubmitRunsFailureContinuation(t *testing.T) {
	wake := make(chan struct{}, 1)
	q := New(1, wake)
	defer q.Close()

	wantErr := errors.New("boom")
	errCh := make(chan error, 1)
	q.Submit(Task{
		Run:       func() (any, error) { return nil, wantErr },
		OnFailure: func(err error) { errCh <- err },
	})

	<-wake
	q.ProcessDone()

	select {
	case err := <-errCh:
		if err != wantErr {
			t.Fatalf("got %v, want %v", err, wantErr)
		}
	default:
		t.Fatal("OnFailure was not invoked")
	}
}

func TestProcessDoneIsFIFOWithinAWorker(t *testing.T) {
	wake := make(chan struct{}, 100)
	q := New(1, wake) // single worker: execution order == submission order
	defer q.Close()

	var order []int
	done := make(chan struct{})
	n := 20
	for i := 0; i < n; i++ {
		i := i
		q.Submit(Task{
			Run: func() (any, error) { return i, nil },
			OnSuccess: func(out any) {
				order = append(order, out.(int))
				if len(order) == n {
					close(done)
				}
			},
		})
	}

	deadline := time.After(2 * time.Second)
	for len(order) < n {
		select {
		case <-wake:
			q.ProcessDone()
		case <-deadline:
			t.Fatalf("timed out with %d/%d completions processed", len(order), n)
		}
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("completion order[%d] = %d, want %d (FIFO within one worker)", i, v, i)
		}
	}
}

func TestHasPendingAndClose(t *testing.T) {
	wake := make(chan struct{}, 1)
	q := New(2, wake)

	q.Submit(Task{Run: func() (any, error) { return nil, nil }})
	<-wake
	if !q.HasPending() {
		t.Fatal("expected a pending completion before ProcessDone")
	}
	q.ProcessDone()
	if q.HasPending() {
		t.Fatal("expected no pending completions after ProcessDone")
	}

	q.Close() // must not hang
}
