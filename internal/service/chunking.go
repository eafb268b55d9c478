package service

import (
	"strings"
	"unicode/utf8"
)

// LengthFunc measures text in chunking units.
type LengthFunc func(string) int

// ChunkConfig controls recursive splitting of source text.
type ChunkConfig struct {
	// Separators are tried coarse to fine. A trailing "" splits per rune.
	Separators []string
	ChunkSize  int
	Overlap    int
	Length     LengthFunc
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Separators: []string{"\n\n", "\n", " ", ""},
		ChunkSize:  1000,
		Overlap:    200,
		Length:     utf8.RuneCountInString,
	}
}

// Splitter splits text into chunks no longer than ChunkSize.
type Splitter struct {
	cfg ChunkConfig
}

// NewSplitter creates a Splitter. Zero fields take their defaults, and an
// overlap that does not fit below the chunk size is dropped.
func NewSplitter(cfg ChunkConfig) *Splitter {
	def := DefaultChunkConfig()
	if len(cfg.Separators) == 0 {
		cfg.Separators = def.Separators
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = 0
	}
	if cfg.Length == nil {
		cfg.Length = def.Length
	}
	return &Splitter{cfg: cfg}
}

// Config returns the effective configuration.
func (s *Splitter) Config() ChunkConfig {
	return s.cfg
}

// Split returns the chunks of text in order. Empty and whitespace-only input
// yields no chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.cfg.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep, finer := separators[0], separators[1:]

	var chunks, pending []string
	for _, piece := range splitOn(text, sep) {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		if s.cfg.Length(piece) <= s.cfg.ChunkSize {
			pending = append(pending, piece)
			continue
		}

		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending, sep)...)
			pending = nil
		}
		if len(finer) == 0 {
			chunks = append(chunks, s.truncate(piece))
			continue
		}
		chunks = append(chunks, s.split(piece, finer)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending, sep)...)
	}
	return chunks
}

// merge joins adjacent pieces into chunks up to the size bound. When a chunk
// is closed, its longest tail fitting in Overlap seeds the next one.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := s.cfg.Length(sep)

	var chunks, current []string
	total := 0
	for _, p := range pieces {
		n := s.cfg.Length(p)
		if len(current) > 0 && total+sepLen+n > s.cfg.ChunkSize {
			chunks = append(chunks, s.truncate(strings.Join(current, sep)))
			current, total = s.overlapTail(current, sepLen, n)
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, p)
		total += n
	}
	if len(current) > 0 {
		chunks = append(chunks, s.truncate(strings.Join(current, sep)))
	}
	return chunks
}

// overlapTail returns the trailing pieces of current whose joined length is
// within Overlap and still leaves room for a following piece of length next.
func (s *Splitter) overlapTail(current []string, sepLen, next int) ([]string, int) {
	keep, total := 0, 0
	for i := len(current) - 1; i >= 0; i-- {
		add := s.cfg.Length(current[i])
		if keep > 0 {
			add += sepLen
		}
		if total+add > s.cfg.Overlap || total+add+sepLen+next > s.cfg.ChunkSize {
			break
		}
		total += add
		keep++
	}
	tail := make([]string, keep)
	copy(tail, current[len(current)-keep:])
	return tail, total
}

// truncate cuts text to the longest rune prefix within the size bound.
func (s *Splitter) truncate(text string) string {
	if s.cfg.Length(text) <= s.cfg.ChunkSize {
		return text
	}
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.cfg.Length(string(runes[:mid])) <= s.cfg.ChunkSize {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:lo])
}

func splitOn(text, sep string) []string {
	if sep != "" {
		return strings.Split(text, sep)
	}
	pieces := make([]string, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		pieces = append(pieces, string(r))
	}
	return pieces
}
