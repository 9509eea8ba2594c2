// Package file stores match history as one append-only text file per
// player, one line per finished match:
//
//	[2024-01-01 12:00] vs bob - Win (2-0)
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/storage"
)

const timeLayout = "2006-01-02 15:04"

var linePattern = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2})\] vs (.+) - (Win \(opponent left\)|Lose \(left\)|Win|Lose) \((\d+-\d+)\)$`)

// Storage writes history files under a directory
type Storage struct {
	mu  sync.Mutex
	dir string
}

// New creates the directory if needed and returns a file storage rooted there
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Path returns the history file for a player. Names are escaped so they
// cannot leave the directory, and upper case letters become '!' followed by
// the lower case letter so that names differing only in case stay apart on
// case-insensitive filesystems.
func (s *Storage) Path(player model.PlayerName) string {
	return filepath.Join(s.dir, "history_"+escapeName(string(player))+".txt")
}

// escapeName relies on url.PathEscape always encoding '!' and emitting
// upper case hex digits.
func escapeName(name string) string {
	escaped := url.PathEscape(name)
	var b strings.Builder
	b.Grow(len(escaped))
	for i := 0; i < len(escaped); i++ {
		c := escaped[i]
		switch {
		case c == '%' && i+2 < len(escaped):
			b.WriteString(escaped[i : i+3])
			i += 2
		case 'A' <= c && c <= 'Z':
			b.WriteByte('!')
			b.WriteByte(c + ('a' - 'A'))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (s *Storage) AppendHistory(ctx context.Context, rec *model.HistoryRecord) error {
	line := FormatLine(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path(rec.Player), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *Storage) ListHistory(ctx context.Context, player model.PlayerName, limit int) ([]*model.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.Path(player))
	if errors.Is(err, fs.ErrNotExist) {
		return []*model.HistoryRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []*model.HistoryRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rec, ok := ParseLine(player, scanner.Text())
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	n := len(records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*model.HistoryRecord, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, records[i])
	}
	return out, nil
}

func (s *Storage) Close() error {
	return nil
}

// FormatLine renders a record as a history file line, without the newline
func FormatLine(rec *model.HistoryRecord) string {
	return fmt.Sprintf("[%s] vs %s - %s (%s)",
		rec.FinishedAt.UTC().Format(timeLayout), rec.Opponent, rec.Label(), rec.Score)
}

// ParseLine reads a history file line back into a record. Match ids are
// not stored in the file and come back empty.
func ParseLine(player model.PlayerName, line string) (*model.HistoryRecord, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	at, err := time.ParseInLocation(timeLayout, m[1], time.UTC)
	if err != nil {
		return nil, false
	}

	rec := &model.HistoryRecord{
		Player:     player,
		Opponent:   model.PlayerName(m[2]),
		Score:      m[4],
		FinishedAt: at,
	}
	switch m[3] {
	case model.LabelWin:
		rec.Result, rec.Reason = model.ResultWin, model.HistoryReasonScore
	case model.LabelLose:
		rec.Result, rec.Reason = model.ResultLose, model.HistoryReasonScore
	case model.LabelWinOpponentLeft:
		rec.Result, rec.Reason = model.ResultWin, model.HistoryReasonOpponentLeft
	case model.LabelLoseLeft:
		rec.Result, rec.Reason = model.ResultLose, model.HistoryReasonLeft
	}
	return rec, true
}
