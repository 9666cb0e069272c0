// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

//go:build integration

package integration

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/curioweb/curio/internal/auth"
	authpg "github.com/curioweb/curio/internal/auth/postgres"
	"github.com/curioweb/curio/internal/content"
	contentpg "github.com/curioweb/curio/internal/content/postgres"
)

var _ = Describe("UserRepository", func() {
	var users *authpg.UserRepository

	BeforeEach(func() {
		truncate()
		users = authpg.NewUserRepository(pool)
	})

	It("round-trips a user and looks it up case-insensitively", func() {
		u, err := auth.NewUser("Alice", "$argon2id$hash")
		Expect(err).NotTo(HaveOccurred())
		Expect(users.Create(suiteCtx, u)).To(Succeed())

		got, err := users.GetByUsername(suiteCtx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(u.ID))
		Expect(got.Username).To(Equal("Alice"))
		Expect(got.IsPrivileged).To(BeFalse())

		byID, err := users.GetByID(suiteCtx, u.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.PasswordHash).To(Equal("$argon2id$hash"))
	})

	It("rejects a name that differs only in case", func() {
		first, _ := auth.NewUser("bob", "$argon2id$hash")
		second, _ := auth.NewUser("BOB", "$argon2id$hash")
		Expect(users.Create(suiteCtx, first)).To(Succeed())
		Expect(users.Create(suiteCtx, second)).To(MatchError(auth.ErrDuplicateUsername))
	})

	It("lets exactly one of many concurrent signups win", func() {
		const workers = 10
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
			dups int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				u, err := auth.NewUser("racer", "$argon2id$hash")
				Expect(err).NotTo(HaveOccurred())
				err = users.Create(suiteCtx, u)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					wins++
				} else {
					Expect(err).To(MatchError(auth.ErrDuplicateUsername))
					dups++
				}
			}()
		}
		wg.Wait()
		Expect(wins).To(Equal(1))
		Expect(dups).To(Equal(workers - 1))
	})

	It("reports an unknown user as not found", func() {
		_, err := users.GetByUsername(suiteCtx, "ghost")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})

var _ = Describe("SessionRepository", func() {
	var (
		sessions *authpg.SessionRepository
		user     *auth.User
		now      time.Time
	)

	BeforeEach(func() {
		truncate()
		sessions = authpg.NewSessionRepository(pool)
		var err error
		user, err = auth.NewUser("carol", "$argon2id$hash")
		Expect(err).NotTo(HaveOccurred())
		Expect(authpg.NewUserRepository(pool).Create(suiteCtx, user)).To(Succeed())
		now = time.Now().UTC().Truncate(time.Microsecond)
	})

	newSession := func(ttl time.Duration) *auth.Session {
		_, hash, err := auth.GenerateSessionToken()
		Expect(err).NotTo(HaveOccurred())
		s, err := auth.NewSession(user.Principal(), hash, now, now.Add(ttl))
		Expect(err).NotTo(HaveOccurred())
		Expect(sessions.Create(suiteCtx, s)).To(Succeed())
		return s
	}

	It("stores and refreshes the principal", func() {
		s := newSession(time.Hour)

		got, err := sessions.GetByTokenHash(suiteCtx, s.TokenHash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Principal).To(Equal(user.Principal()))
		Expect(got.ExpiresAt).To(BeTemporally("==", s.ExpiresAt))

		promoted := user.Principal()
		promoted.IsPrivileged = true
		Expect(sessions.UpdatePrincipal(suiteCtx, s.ID, promoted, now.Add(time.Minute))).To(Succeed())

		got, err = sessions.GetByTokenHash(suiteCtx, s.TokenHash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Principal.IsPrivileged).To(BeTrue())
		Expect(got.RefreshedAt).To(BeTemporally("==", now.Add(time.Minute)))
	})

	It("deletes idempotently", func() {
		s := newSession(time.Hour)
		Expect(sessions.DeleteByTokenHash(suiteCtx, s.TokenHash)).To(Succeed())
		Expect(sessions.DeleteByTokenHash(suiteCtx, s.TokenHash)).To(Succeed())
		_, err := sessions.GetByTokenHash(suiteCtx, s.TokenHash)
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("purges only expired sessions", func() {
		newSession(time.Minute)
		live := newSession(time.Hour)

		removed, err := sessions.DeleteExpired(suiteCtx, now.Add(time.Minute))
		Expect(err).NotTo(HaveOccurred())
		Expect(removed).To(Equal(int64(1)))

		_, err = sessions.GetByTokenHash(suiteCtx, live.TokenHash)
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("ItemRepository", func() {
	var items *contentpg.ItemRepository

	BeforeEach(func() {
		truncate()
		items = contentpg.NewItemRepository(pool)
	})

	create := func(title string) *content.Item {
		item, err := content.NewItem([]string{title + ".jpg"},
			content.Text{Canonical: title, Localized: title + " (fr)"},
			content.Text{Canonical: "about " + title, Localized: "à propos de " + title})
		Expect(err).NotTo(HaveOccurred())
		Expect(items.Create(suiteCtx, item)).To(Succeed())
		return item
	}

	It("hides tombstoned items from every read", func() {
		keep := create("vase")
		gone := create("lamp")

		Expect(items.Tombstone(suiteCtx, gone.ID, time.Now())).To(Succeed())

		live, err := items.ListLive(suiteCtx)
		Expect(err).NotTo(HaveOccurred())
		Expect(live).To(HaveLen(1))
		Expect(live[0].ID).To(Equal(keep.ID))

		_, err = items.GetLive(suiteCtx, gone.ID)
		Expect(err).To(MatchError(content.ErrNotFound))
		_, err = items.GetLive(suiteCtx, ulid.Make())
		Expect(err).To(MatchError(content.ErrNotFound))
	})

	It("refuses to tombstone twice", func() {
		item := create("chair")
		Expect(items.Tombstone(suiteCtx, item.ID, time.Now())).To(Succeed())
		Expect(items.Tombstone(suiteCtx, item.ID, time.Now())).To(MatchError(content.ErrNotFound))
	})

	It("returns an empty, non-nil list when nothing is live", func() {
		live, err := items.ListLive(suiteCtx)
		Expect(err).NotTo(HaveOccurred())
		Expect(live).NotTo(BeNil())
		Expect(live).To(BeEmpty())
	})
})
