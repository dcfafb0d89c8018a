package screens_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/EtayOfir/bistro/screens"
)

var _ = Describe("Login()", func() {
	It("returns the granted role on success", func() {
		conn := newFakeConn()
		conn.reply = "LOGIN_SUCCESS|HOST"

		role, err := screens.Login(context.Background(), conn, "dana", "hunter2")
		Expect(err).To(Succeed())
		Expect(role).To(Equal("HOST"))
		Expect(conn.sentLines()).To(Equal([]string{"#LOGIN dana hunter2"}))
	})

	It("fails when the server rejects the credentials", func() {
		conn := newFakeConn()
		conn.reply = "LOGIN_FAILED|unknown user"

		_, err := screens.Login(context.Background(), conn, "dana", "nope")
		Expect(err).To(MatchError(screens.ErrLoginFailed))
	})

	It("fails on an explicit server error", func() {
		conn := newFakeConn()
		conn.reply = "ERROR|maintenance window"

		_, err := screens.Login(context.Background(), conn, "dana", "hunter2")
		Expect(err).To(MatchError(screens.ErrLoginFailed))
	})

	It("reports a coincidental push landing in the reply slot", func() {
		conn := newFakeConn()
		conn.reply = "WAITING_LIST|EMPTY"

		_, err := screens.Login(context.Background(), conn, "dana", "hunter2")
		Expect(err).To(MatchError(screens.ErrUnexpectedReply))
	})
})

var _ = Describe("Identify()", func() {
	It("announces the user and role", func() {
		conn := newFakeConn()

		Expect(screens.Identify(conn, "dana", "HOST")).To(Succeed())
		Expect(conn.sentLines()).To(Equal([]string{"IDENTIFY|dana|HOST"}))
	})
})
