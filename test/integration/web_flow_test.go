// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/curioweb/curio/internal/auth"
	authpg "github.com/curioweb/curio/internal/auth/postgres"
	"github.com/curioweb/curio/internal/content"
	contentpg "github.com/curioweb/curio/internal/content/postgres"
	"github.com/curioweb/curio/internal/i18n"
	"github.com/curioweb/curio/internal/logging"
	"github.com/curioweb/curio/internal/web"
)

var _ = Describe("HTTP flow on PostgreSQL", func() {
	var (
		srv    *httptest.Server
		client *http.Client
		items  *contentpg.ItemRepository
	)

	BeforeEach(func() {
		truncate()

		users := authpg.NewUserRepository(pool)
		sm, err := auth.NewSessionManager(authpg.NewSessionRepository(pool), users)
		Expect(err).NotTo(HaveOccurred())
		svc, err := auth.NewAuthService(users, sm, auth.NewArgon2idHasher(2), auth.WithLogger(logging.Discard()))
		Expect(err).NotTo(HaveOccurred())
		catalog, err := i18n.Load()
		Expect(err).NotTo(HaveOccurred())
		items = contentpg.NewItemRepository(pool)

		server, err := web.New(web.Config{
			Auth:    svc,
			Items:   items,
			Catalog: catalog,
			Secret:  []byte(strings.Repeat("k", web.MinSecretBytes)),
			Logger:  logging.Discard(),
		})
		Expect(err).NotTo(HaveOccurred())
		srv = httptest.NewServer(server.Handler())

		jar, err := cookiejar.New(nil)
		Expect(err).NotTo(HaveOccurred())
		client = &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	})

	AfterEach(func() {
		srv.Close()
	})

	post := func(path, username, password string) *http.Response {
		resp, err := client.PostForm(srv.URL+path, url.Values{"username": {username}, "password": {password}})
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		return resp
	}
	get := func(path string) *http.Response {
		resp, err := client.Get(srv.URL + path)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	It("signs up, logs in, reaches main and logs out", func() {
		resp := post("/signup", "dana", "pw")
		Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
		Expect(resp.Header.Get("Location")).To(Equal("/"))

		resp = get("/main")
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusSeeOther), "signup does not log in")

		resp = post("/login", "dana", "pw")
		Expect(resp.Header.Get("Location")).To(Equal("/main"))

		resp = get("/main")
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp = get("/logout")
		resp.Body.Close()
		resp = get("/main")
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
		Expect(resp.Header.Get("Location")).To(Equal("/"))
	})

	It("serves only live items", func() {
		live, err := content.NewItem([]string{"a.jpg"}, content.Text{Canonical: "A", Localized: "A"}, content.Text{Canonical: "a", Localized: "a"})
		Expect(err).NotTo(HaveOccurred())
		dead, err := content.NewItem([]string{"b.jpg"}, content.Text{Canonical: "B", Localized: "B"}, content.Text{Canonical: "b", Localized: "b"})
		Expect(err).NotTo(HaveOccurred())
		Expect(items.Create(suiteCtx, live)).To(Succeed())
		Expect(items.Create(suiteCtx, dead)).To(Succeed())
		Expect(items.Tombstone(suiteCtx, dead.ID, dead.CreatedAt)).To(Succeed())

		resp := get("/items")
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var body []map[string]any
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveLen(1))
		Expect(body[0]["id"]).To(Equal(live.ID.String()))

		gone := get("/items/" + dead.ID.String())
		gone.Body.Close()
		Expect(gone.StatusCode).To(Equal(http.StatusNotFound))
	})
})
