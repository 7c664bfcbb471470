// Package notify keeps transient, auto-dismissing user notices: the success
// and error toasts shown after exporting and the inline validation warnings.
package notify

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"
)

// DefaultDuration is how long a notice stays active.
const DefaultDuration = 3 * time.Second

// Kind classifies a notice.
type Kind int

const (
	Info Kind = iota
	Success
	Warning
	Error
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name. Unknown names are an error.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, c := range []Kind{Info, Success, Warning, Error} {
		if c.String() == s {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown notice kind %q", s)
}

// Notice is one notification.
type Notice struct {
	ID       uint64        `json:"id"`
	Kind     Kind          `json:"kind"`
	Message  string        `json:"message"`
	Created  time.Time     `json:"created"`
	Duration time.Duration `json:"duration"`
}

// Expired reports whether the notice is past its duration at now.
func (n Notice) Expired(now time.Time) bool {
	return !now.Before(n.Created.Add(n.Duration))
}

// Board holds active notices. The zero value is ready to use and safe for
// concurrent use.
type Board struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Duration overrides DefaultDuration for new notices.
	Duration time.Duration

	mu      sync.Mutex
	nextID  uint64
	notices []Notice
}

func (b *Board) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Push adds a notice and returns it.
func (b *Board) Push(kind Kind, message string) Notice {
	d := b.Duration
	if d <= 0 {
		d = DefaultDuration
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	n := Notice{ID: b.nextID, Kind: kind, Message: message, Created: b.now(), Duration: d}
	b.notices = append(b.notices, n)
	return n
}

// Active returns the notices that have not expired, oldest first, and
// forgets the expired ones.
func (b *Board) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.notices = slices.DeleteFunc(b.notices, func(n Notice) bool { return n.Expired(now) })
	return slices.Clone(b.notices)
}

// Dismiss removes a notice before it expires. It reports whether the notice
// was active.
func (b *Board) Dismiss(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.notices, func(n Notice) bool { return n.ID == id })
	if i < 0 {
		return false
	}
	b.notices = slices.Delete(b.notices, i, i+1)
	return true
}

// Clear removes every notice.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = nil
}
