package immediateticker_test

import (
	"testing"
	"time"

	immediateticker "lipsync/pkg/immediate_ticker"

	"github.com/stretchr/testify/require"
)

func TestImmediateTick(t *testing.T) {
	it := immediateticker.New(time.Hour)
	defer it.Stop()

	select {
	case <-it.C:
	case <-time.After(time.Second):
		t.Fatal("no immediate tick")
	}
}

func TestTicks(t *testing.T) {
	it := immediateticker.New(10 * time.Millisecond)
	defer it.Stop()

	for i := 0; i < 3; i++ {
		select {
		case <-it.C:
		case <-time.After(time.Second):
			t.Fatalf("tick %d missing", i)
		}
	}
}

func TestStop(t *testing.T) {
	it := immediateticker.New(10 * time.Millisecond)
	<-it.C
	it.Stop()

	time.Sleep(30 * time.Millisecond)

	select {
	case <-it.C:
		require.Fail(t, "tick after stop")
	default:
	}
}
