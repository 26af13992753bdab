// internal/watcher/dedup.go
package watcher

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// signatureSet remembers processed signatures for ttl, at most size of them.
// Notifications for the same transaction arrive once per watched program
// that it mentions.
type signatureSet struct {
	// mu делает проверку и запись одной операцией
	mu   sync.Mutex
	seen *expirable.LRU[solana.Signature, struct{}]
}

func newSignatureSet(size int, ttl time.Duration) *signatureSet {
	return &signatureSet{
		seen: expirable.NewLRU[solana.Signature, struct{}](size, nil, ttl),
	}
}

// MarkIfNew records sig and reports whether it was not seen within ttl.
func (s *signatureSet) MarkIfNew(sig solana.Signature) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen.Peek(sig); ok {
		return false
	}
	s.seen.Add(sig, struct{}{})
	return true
}

func (s *signatureSet) Len() int {
	return s.seen.Len()
}
