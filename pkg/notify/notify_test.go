package notify

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestNoticesExpireAfterDuration(t *testing.T) {
	c := &clock{t: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)}
	b := &Board{Now: c.now}

	n := b.Push(Success, "تم تنزيل الصورة بنجاح!")
	assert.Equal(t, DefaultDuration, n.Duration)
	require.Len(t, b.Active(), 1)

	c.advance(2999 * time.Millisecond)
	assert.Len(t, b.Active(), 1)

	c.advance(time.Millisecond)
	assert.Empty(t, b.Active())
}

func TestDismiss(t *testing.T) {
	b := &Board{}
	first := b.Push(Info, "one")
	second := b.Push(Error, "two")
	assert.NotEqual(t, first.ID, second.ID)

	assert.True(t, b.Dismiss(first.ID))
	assert.False(t, b.Dismiss(first.ID))

	active := b.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "two", active[0].Message)

	b.Clear()
	assert.Empty(t, b.Active())
}

func TestCustomDuration(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	b := &Board{Now: c.now, Duration: 10 * time.Second}
	b.Push(Warning, "w")
	c.advance(5 * time.Second)
	assert.Len(t, b.Active(), 1)
}

func TestKindJSON(t *testing.T) {
	data, err := json.Marshal(Notice{ID: 1, Kind: Warning, Message: "m"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"warning"`)

	var k Kind
	require.NoError(t, json.Unmarshal([]byte(`"error"`), &k))
	assert.Equal(t, Error, k)
	assert.Error(t, json.Unmarshal([]byte(`"fatal"`), &k))
}

func TestBoardConcurrentPush(t *testing.T) {
	b := &Board{}
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Push(Info, "x")
		}()
	}
	wg.Wait()
	assert.Len(t, b.Active(), 50)
}
