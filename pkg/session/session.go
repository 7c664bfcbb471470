// Package session drives the compositor the way an editor UI does: each
// field change builds a fresh request and renders it, slow renders that
// finish after a newer one are discarded, and outcomes are reported as
// transient notices.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xob0t/namecard/internal/logger"
	"github.com/xob0t/namecard/pkg/compositor"
	"github.com/xob0t/namecard/pkg/notify"
	"github.com/xob0t/namecard/pkg/template"
	"github.com/xob0t/namecard/pkg/typeset"
)

// User-facing notice texts.
const (
	ExportSucceededMessage = "تم تنزيل الصورة بنجاح!"
	ExportFailedMessage    = "حدث خطأ أثناء تنزيل الصورة. يرجى المحاولة مرة أخرى."
	LoadFailedMessage      = "تعذر تحميل الصورة"
)

// Config configures a Session.
type Config struct {
	Compositor *compositor.Compositor
	// Initial is the request shown before any change.
	Initial compositor.Request
	// DefaultText replaces empty text. Defaults to template.DefaultText.
	DefaultText string
	// Board receives notices. Defaults to a fresh Board.
	Board *notify.Board
}

// Session owns the current request and the latest rendered surface.
// It is safe for concurrent use.
type Session struct {
	comp        *compositor.Compositor
	board       *notify.Board
	defaultText string

	mu      sync.Mutex
	req     compositor.Request
	issued  uint64 // sequence number of the latest render started
	surface *compositor.Surface
}

// New creates a session. It does not render; call Refresh for the first
// surface.
func New(cfg Config) (*Session, error) {
	if cfg.Compositor == nil {
		return nil, errors.New("session: nil compositor")
	}
	s := &Session{
		comp:        cfg.Compositor,
		board:       cfg.Board,
		defaultText: cfg.DefaultText,
		req:         cfg.Initial,
	}
	if s.board == nil {
		s.board = &notify.Board{}
	}
	if s.defaultText == "" {
		s.defaultText = template.DefaultText
	}
	if s.req.Text == "" {
		s.req.Text = s.defaultText
	}
	return s, nil
}

// Request returns the current request.
func (s *Session) Request() compositor.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req
}

// Surface returns the latest accepted surface, or nil before the first render.
func (s *Session) Surface() *compositor.Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

// Notices returns the active notices.
func (s *Session) Notices() []notify.Notice {
	return s.board.Active()
}

// Board returns the notice board.
func (s *Session) Board() *notify.Board {
	return s.board
}

// Apply makes req current and renders it. Each call takes the next sequence
// number; when a newer render started while this one was running, the
// result is discarded and Apply returns (nil, false, nil). Otherwise the
// surface becomes current and Apply returns it with true. A load failure
// still yields a (placeholder) surface together with the error.
func (s *Session) Apply(ctx context.Context, req compositor.Request) (*compositor.Surface, bool, error) {
	return s.update(ctx, func(r *compositor.Request) { *r = req })
}

// Refresh re-renders the current request.
func (s *Session) Refresh(ctx context.Context) (*compositor.Surface, bool, error) {
	return s.update(ctx, func(*compositor.Request) {})
}

// update edits the current request and takes a sequence number in one
// critical section, so concurrent setters never overwrite each other.
func (s *Session) update(ctx context.Context, change func(*compositor.Request)) (*compositor.Surface, bool, error) {
	s.mu.Lock()
	change(&s.req)
	s.issued++
	seq := s.issued
	req := s.req
	s.mu.Unlock()

	surface, err := s.comp.Render(ctx, req)

	s.mu.Lock()
	if seq != s.issued {
		s.mu.Unlock()
		logger.For("session").Debug("discarding stale render", "seq", seq)
		return nil, false, nil
	}
	s.surface = surface
	s.mu.Unlock()

	if err != nil {
		s.board.Push(notify.Error, LoadFailedMessage)
	}
	return surface, true, err
}

// SetText changes the name. Empty text shows the default text. Text with no
// Arabic letters raises a warning notice and the previous valid text keeps
// rendering; the warnings are returned either way.
func (s *Session) SetText(ctx context.Context, text string) (*compositor.Surface, []template.Warning, error) {
	if warnings := template.ValidateName(text); len(warnings) > 0 {
		for _, w := range warnings {
			s.board.Push(notify.Warning, w.Message)
		}
		return s.Surface(), warnings, nil
	}
	if text == "" {
		text = s.defaultText
	}
	surface, _, err := s.update(ctx, func(r *compositor.Request) { r.Text = text })
	return surface, nil, err
}

// SetFontSize changes the font size in surface pixels.
func (s *Session) SetFontSize(ctx context.Context, size int) (*compositor.Surface, bool, error) {
	return s.update(ctx, func(r *compositor.Request) { r.FontSize = size })
}

// SetColor changes the text color. Invalid colors are rejected.
func (s *Session) SetColor(ctx context.Context, color string) (*compositor.Surface, bool, error) {
	if !template.ValidColor(color) {
		s.board.Push(notify.Warning, fmt.Sprintf("invalid color %q", color))
		return nil, false, fmt.Errorf("set color: invalid color %q", color)
	}
	return s.update(ctx, func(r *compositor.Request) { r.Color = color })
}

// SetPosition changes the anchor, in percent of the surface.
func (s *Session) SetPosition(ctx context.Context, pos compositor.Position) (*compositor.Surface, bool, error) {
	return s.update(ctx, func(r *compositor.Request) { r.Position = pos })
}

// SetDirection changes the text direction.
func (s *Session) SetDirection(ctx context.Context, dir typeset.Direction) (*compositor.Surface, bool, error) {
	return s.update(ctx, func(r *compositor.Request) { r.Direction = dir })
}

// SetSource changes the background image.
func (s *Session) SetSource(ctx context.Context, source string) (*compositor.Surface, bool, error) {
	return s.update(ctx, func(r *compositor.Request) { r.Source = source })
}

// Export encodes the current surface. Success and failure are both reported
// as notices; failures match compositor.ErrExport.
func (s *Session) Export() (*compositor.Artifact, error) {
	surface := s.Surface()

	var art *compositor.Artifact
	var err error
	switch {
	case surface == nil:
		err = fmt.Errorf("%w: %w", compositor.ErrExport, compositor.ErrNoSurface)
	case surface.Origin == compositor.OriginPlaceholder:
		err = fmt.Errorf("%w: nothing but the placeholder was rendered", compositor.ErrExport)
	default:
		art, err = s.comp.Export(surface, surface.Request.Text)
	}

	if err != nil {
		logger.For("session").Warn("export failed", "err", err)
		s.board.Push(notify.Error, ExportFailedMessage)
		return nil, err
	}
	s.board.Push(notify.Success, ExportSucceededMessage)
	return art, nil
}
