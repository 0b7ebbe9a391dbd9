// Package version holds build metadata, set with
//
//	go build -ldflags "-X code.selman.me/delimkit/internal/version.Version=1.2.0 -X code.selman.me/delimkit/internal/version.Date=2026-10-19"
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/araddon/dateparse"
)

var (
	Version = "0.1.0"
	Date    = "2026-10-19"
	Author  = ""
	Email   = ""
)

const devVersion = "0.0.0-dev"

// String formats version and date for --version.
func String() string {
	return fmt.Sprintf("version %s, date %s", semantic(Version), day(Date))
}

// Epilog is the copyright line for usage output; empty when Author is unset.
func Epilog() string {
	if Author == "" {
		return ""
	}
	if Email == "" {
		return fmt.Sprintf("Copyright %s", Author)
	}
	return fmt.Sprintf("Copyright %s (%s)", Author, Email)
}

func semantic(v string) string {
	sv, err := semver.NewVersion(v)
	if err != nil {
		return devVersion
	}
	return sv.String()
}

func day(d string) string {
	t, err := dateparse.ParseAny(d)
	if err != nil {
		return d
	}
	return t.Format("2006-01-02")
}
