package pool

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		delay   time.Duration
		wantErr error
	}{
		{
			name:    "finishes in time",
			timeout: 100 * time.Millisecond,
			delay:   time.Millisecond,
		},
		{
			name:    "times out",
			timeout: 10 * time.Millisecond,
			delay:   time.Second,
			wantErr: ErrTaskTimeout,
		},
		{
			name:    "zero timeout disables the wrapper",
			timeout: 0,
			delay:   5 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := WithTimeout(tt.timeout, sleepTask(tt.delay, 7, nil))
			v, err := task(context.Background())

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || v != 7 {
				t.Errorf("expected 7, got %d (err=%v)", v, err)
			}
		})
	}
}

func TestWithTimeout_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := WithTimeout(time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(5 * time.Millisecond)
		return 0, nil
	})

	_, err := task(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrTaskTimeout) {
		t.Error("parent cancellation must not be reported as a timeout")
	}
}

func TestWithTimeout_InPool(t *testing.T) {
	tasks := []Task[int]{
		WithTimeout(10*time.Millisecond, sleepTask(time.Second, 0, nil)),
		WithTimeout(time.Second, sleepTask(time.Millisecond, 1, nil)),
	}

	p, err := New(FromSlice(tasks), 2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(res.Outcomes[0].Err, ErrTaskTimeout) {
		t.Errorf("expected timeout for task 0, got %v", res.Outcomes[0].Err)
	}
	if res.Outcomes[1].Err != nil {
		t.Errorf("expected task 1 to succeed, got %v", res.Outcomes[1].Err)
	}
}

func TestFuture(t *testing.T) {
	f := newFuture[int]()

	select {
	case <-f.Done():
		t.Fatal("future settled too early")
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := f.WaitContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	errFirst := errors.New("first")
	f.resolve(1, errFirst)
	f.resolve(2, nil)

	v, err := f.Wait()
	if v != 1 || !errors.Is(err, errFirst) {
		t.Errorf("expected the first resolution to win, got %d %v", v, err)
	}
}
