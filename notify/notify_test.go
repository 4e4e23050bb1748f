package notify

import (
	"context"
	"testing"
)

func TestFanout(t *testing.T) {
	var got []string
	f := Fanout{
		Func(func(ctx context.Context, e Event) { got = append(got, "a:"+e.Title) }),
		nil,
		Func(func(ctx context.Context, e Event) { got = append(got, "b:"+e.Title) }),
	}
	f.Notify(context.Background(), Event{Type: HistoryUpdate, Title: "Start"})
	if len(got) != 2 || got[0] != "a:Start" || got[1] != "b:Start" {
		t.Fatal(got)
	}
}
