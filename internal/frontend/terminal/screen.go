package terminal

import (
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon-client/internal/game/battle"
	"github.com/cory-johannsen/dungeon-client/internal/protocol"
)

// DefaultLogLines is how many client log entries a frame shows.
const DefaultLogLines = 8

// Prompt ends every frame.
const Prompt = "> "

// Screen draws full frames of the game to a terminal. It implements battle.Sink.
//
// Screen is not safe for concurrent use; the session calls it from its loop only.
type Screen struct {
	out      io.Writer
	logger   *zap.Logger
	logLines int

	world     protocol.GameState
	log       []string
	proj      battle.Projection
	hasProj   bool
	dirty     bool
	dead      bool
	frames    int
	writeFail bool
}

// NewScreen creates a Screen writing to out.
//
// Precondition: out must be non-nil.
// Postcondition: A nil logger is replaced by a no-op logger.
func NewScreen(out io.Writer, logger *zap.Logger) *Screen {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screen{out: out, logger: logger, logLines: DefaultLogLines}
}

// Render redraws the frame for a new battle projection. A projection identical to the last
// one, emphasis included, is not redrawn unless log lines arrived in between.
func (s *Screen) Render(p battle.Projection) {
	if s.hasProj && !s.dirty && s.proj.Highlight == p.Highlight && s.proj.SameContent(p) {
		return
	}
	s.proj = p
	s.hasProj = true
	s.draw()
}

// AppendLog adds a line to the client log. It is drawn with the next frame, which the battle
// view always requests right after.
func (s *Screen) AppendLog(line string) {
	s.push(RenderLog(line))
	s.dirty = true
}

// ShowWorld replaces the world snapshot and redraws.
func (s *Screen) ShowWorld(gs protocol.GameState) {
	s.world = gs
	s.draw()
}

// Notice adds a client message to the log and redraws.
func (s *Screen) Notice(text string) {
	s.push(RenderNotice(text))
	s.draw()
}

// ShowDeath replaces every frame from now on with the death screen.
func (s *Screen) ShowDeath() {
	s.dead = true
	s.draw()
}

// Frames reports how many frames have been drawn.
func (s *Screen) Frames() int { return s.frames }

func (s *Screen) push(entry string) {
	s.log = append(s.log, entry)
	if over := len(s.log) - s.logLines; over > 0 {
		s.log = append(s.log[:0], s.log[over:]...)
	}
}

func (s *Screen) draw() {
	s.dirty = false
	s.frames++

	var b strings.Builder
	b.WriteString(ClearScreen)
	if s.dead {
		b.WriteString(RenderDeath())
		b.WriteString("\n")
		s.write(b.String())
		return
	}

	b.WriteString(RenderWorld(s.world))
	if len(s.world.Messages) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderMessages(s.world.Messages))
	}
	if len(s.log) > 0 {
		b.WriteString("\n")
		for _, entry := range s.log {
			b.WriteString(entry)
			b.WriteString("\n")
		}
	}
	if panel := RenderBattle(s.proj); panel != "" {
		b.WriteString("\n")
		b.WriteString(panel)
	}
	b.WriteString(Prompt)
	s.write(b.String())
}

func (s *Screen) write(frame string) {
	if ce := s.logger.Check(zap.DebugLevel, "frame drawn"); ce != nil {
		ce.Write(zap.Int("frame", s.frames), zap.String("text", stripANSI(frame)))
	}
	if _, err := io.WriteString(s.out, frame); err != nil {
		// Report the first failure only; a dead terminal fails every frame.
		if !s.writeFail {
			s.logger.Warn("writing frame", zap.Error(err))
		}
		s.writeFail = true
		return
	}
	s.writeFail = false
}
