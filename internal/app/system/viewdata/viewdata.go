// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/soundcircle/soundcircle/internal/app/system/authz"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	UserName   string
	UserEmail  string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// Error holds a validation or status message for re-rendered forms.
	Error string
}

// NewBaseVM builds the common view model from the request context.
func NewBaseVM(r *http.Request, title, backURL string) BaseVM {
	name, email, _, signedIn := authz.UserCtx(r)
	return BaseVM{
		SiteName:    "SoundCircle",
		IsLoggedIn:  signedIn,
		UserName:    name,
		UserEmail:   email,
		Title:       title,
		BackURL:     backURL,
		CurrentPath: r.URL.Path,
	}
}

// SetError records a message to display on a re-rendered form.
func (b *BaseVM) SetError(msg string) {
	b.Error = msg
}
