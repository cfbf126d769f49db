// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

//go:build integration

package chat_test

import (
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/syncora/syncora/internal/access"
	"github.com/syncora/syncora/internal/chat"
	chatpg "github.com/syncora/syncora/internal/chat/postgres"
	"github.com/syncora/syncora/internal/feed"
)

var _ = Describe("Concurrent messaging", func() {
	const goroutines = 50

	var (
		ownerID ulid.ULID
		userID  ulid.ULID
		group   *access.Group
		general *access.Channel
	)

	BeforeEach(func() {
		ownerID = createTestUserID()
		userID = createTestUserID()

		var err error
		group, err = env.svc.CreateGroup(env.ctx, ownerID, "Concurrency Workspace")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.svc.JoinGroup(env.ctx, userID, group.ID)
		Expect(err).NotTo(HaveOccurred())

		channels, err := chatpg.NewChannelRepository(env.pool).ListByGroup(env.ctx, group.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(channels).NotTo(BeEmpty())
		general = channels[0]
	})

	It("persists every concurrently sent message and fans each one out", func() {
		sub := env.feed.Subscribe(feed.ChannelStream(general.ID))
		defer sub.Close()

		var wg sync.WaitGroup
		errs := make([]error, goroutines)

		for i := range goroutines {
			wg.Add(1)
			go func(idx int) {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := env.svc.SendMessage(env.ctx, userID, general.ID,
					fmt.Sprintf("message %d", idx))
				errs[idx] = err
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			Expect(err).NotTo(HaveOccurred(), fmt.Sprintf("goroutine %d should have sent", i))
		}

		msgs, err := env.svc.ListMessages(env.ctx, userID, general.ID,
			chat.ListOptions{Limit: goroutines * 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(goroutines))

		// Publish broadcasts before SendMessage returns, so every event is
		// already buffered on the subscription.
		received := 0
		for range goroutines {
			select {
			case ev := <-sub.Events():
				Expect(ev.Type).To(Equal(feed.EventMessageCreated))
				received++
			default:
			}
		}
		Expect(received).To(Equal(goroutines))
	})

	It("denies every concurrent sender without channel access", func() {
		roles, err := chatpg.NewRoleRepository(env.pool).ListByGroup(env.ctx, group.ID)
		Expect(err).NotTo(HaveOccurred())
		var modRoleID ulid.ULID
		for _, r := range roles {
			if r.Name == "Moderator" {
				modRoleID = r.ID
			}
		}
		Expect(modRoleID.IsZero()).To(BeFalse())

		restricted, err := env.svc.CreateChannel(env.ctx, ownerID, group.ID,
			"mod-only", "", access.ChannelText, []ulid.ULID{modRoleID})
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		errs := make([]error, goroutines)

		for i := range goroutines {
			wg.Add(1)
			go func(idx int) {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := env.svc.SendMessage(env.ctx, userID, restricted.ID, "nope")
				errs[idx] = err
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			Expect(err).To(HaveOccurred(), fmt.Sprintf("goroutine %d should have been denied", i))
			Expect(errors.Is(err, access.ErrPermissionDenied)).To(BeTrue(),
				fmt.Sprintf("goroutine %d: expected ErrPermissionDenied, got %v", i, err))
		}

		msgs, err := env.svc.ListMessages(env.ctx, ownerID, restricted.ID, chat.ListOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(BeEmpty())
	})

	It("replays persisted channel events in stream order", func() {
		for i := range 5 {
			_, err := env.svc.SendMessage(env.ctx, userID, general.ID,
				fmt.Sprintf("replayable %d", i))
			Expect(err).NotTo(HaveOccurred())
		}

		events, err := env.feed.Replay(env.ctx, feed.ChannelStream(general.ID), ulid.ULID{}, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(len(events)).To(BeNumerically(">=", 5))

		for i := 1; i < len(events); i++ {
			Expect(events[i-1].ID.Compare(events[i].ID)).To(Equal(-1),
				"replayed events should be strictly ordered by ID")
		}
	})
})
