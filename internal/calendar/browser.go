package calendar

import (
	"github.com/pkg/browser"
)

// BrowserOpener hands the consent URL to the user.
type BrowserOpener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to BrowserOpener.
type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error {
	return f(url)
}

// SystemBrowser opens URLs with the desktop's default browser.
type SystemBrowser struct{}

func (SystemBrowser) Open(url string) error {
	return browser.OpenURL(url)
}
