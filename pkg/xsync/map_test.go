package xsync_test

import (
	"errors"
	"sync"
	"sync/atomic"

	. "github.com/bnosac/audiowhisper/pkg/xsync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SyncMap", func() {

	Context("Syncmap", func() {
		It("sets and gets", func() {
			m := NewSyncedMap[string, string]()
			m.Set("foo", "bar")
			Expect(m.Get("foo")).To(Equal("bar"))
			Expect(m.Keys()).To(ConsistOf("foo"))
			Expect(m.Len()).To(Equal(1))
		})
		It("pops", func() {
			m := NewSyncedMap[string, string]()
			m.Set("foo", "bar")
			v, ok := m.Pop("foo")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal("bar"))
			Expect(m.Get("foo")).To(Equal(""))
			Expect(m.Exists("foo")).To(Equal(false))

			_, ok = m.Pop("foo")
			Expect(ok).To(BeFalse())
		})
	})

	Context("GetOrCreate", func() {
		It("builds a value only once under contention", func() {
			m := NewSyncedMap[string, int]()
			var calls atomic.Int32
			var wg sync.WaitGroup
			for range 16 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					v, err := m.GetOrCreate("k", func() (int, error) {
						calls.Add(1)
						return 42, nil
					})
					Expect(err).ToNot(HaveOccurred())
					Expect(v).To(Equal(42))
				}()
			}
			wg.Wait()
			Expect(calls.Load()).To(Equal(int32(1)))
		})

		It("does not store failed values", func() {
			m := NewSyncedMap[string, int]()
			_, err := m.GetOrCreate("k", func() (int, error) { return 0, errors.New("boom") })
			Expect(err).To(MatchError("boom"))
			Expect(m.Exists("k")).To(BeFalse())
		})
	})
})
