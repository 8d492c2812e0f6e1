package whisper

import "sync"

type Token struct {
	ID     int
	Text   string
	P      float32
	T0, T1 int64
}

type Segment struct {
	T0, T1 int64
	Text   string
	Tokens []Token
}

// Store is an in-memory Results used by engines that decode in Go.
type Store struct {
	mu       sync.RWMutex
	segments []Segment
}

func (s *Store) Append(segs ...Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = append(s.segments, segs...)
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = nil
}

func (s *Store) segment(i int) Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.segments[i]
}

func (s *Store) NSegments() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

func (s *Store) SegmentText(i int) string { return s.segment(i).Text }
func (s *Store) SegmentT0(i int) int64 { return s.segment(i).T0 }
func (s *Store) SegmentT1(i int) int64 { return s.segment(i).T1 }
func (s *Store) NTokens(i int) int { return len(s.segment(i).Tokens) }
func (s *Store) TokenID(i, j int) int { return s.segment(i).Tokens[j].ID }
func (s *Store) TokenText(i, j int) string { return s.segment(i).Tokens[j].Text }
func (s *Store) TokenP(i, j int) float32 { return s.segment(i).Tokens[j].P }

func (s *Store) TokenData(i, j int) TokenData {
	t := s.segment(i).Tokens[j]
	return TokenData{ID: t.ID, P: t.P, T0: t.T0, T1: t.T1}
}

// Shift moves all segment and token times by delta centiseconds.
func (seg Segment) Shift(delta int64) Segment {
	seg.T0 += delta
	seg.T1 += delta
	if len(seg.Tokens) > 0 {
		tokens := make([]Token, len(seg.Tokens))
		for j, t := range seg.Tokens {
			t.T0 += delta
			t.T1 += delta
			tokens[j] = t
		}
		seg.Tokens = tokens
	}
	return seg
}
