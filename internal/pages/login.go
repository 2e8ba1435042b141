package pages

import (
	"context"

	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
)

var loginFields = struct {
	username driver.Selector
	password driver.Selector
	submit   driver.Selector
}{
	username: driver.ByID("username"),
	password: driver.ByID("password"),
	submit:   driver.XPath(`//input[@value="Sign in"]`),
}

// LoginPage is the identity provider's sign-in form.
type LoginPage struct {
	a *Actor
}

// SignIn fills the form and waits until it is gone.
func (p *LoginPage) SignIn(ctx context.Context, user config.User) error {
	d := p.a.d
	if err := p.a.poller.Check(ctx, driver.Visible(d, loginFields.username)); err != nil {
		return err
	}
	if err := d.Fill(ctx, loginFields.username, user.Email); err != nil {
		return err
	}
	if err := d.Fill(ctx, loginFields.password, user.Password); err != nil {
		return err
	}
	if err := d.Click(ctx, loginFields.submit); err != nil {
		return err
	}
	return p.a.poller.Check(ctx, driver.Gone(d, loginFields.password))
}
