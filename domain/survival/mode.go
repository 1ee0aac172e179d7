package survival

import (
	"fmt"

	"ecttool/domain/cohort"
	"ecttool/domain/core"
)

// Mode selects the survival endpoint.
type Mode string

const (
	ModeOverall         Mode = "os"
	ModeProgressionFree Mode = "pfs"
)

// ParseMode validates a mode key.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOverall, ModeProgressionFree:
		return Mode(s), nil
	}
	return "", core.NewInvalidInputError("mode", fmt.Sprintf("unsupported survival mode %q", s))
}

// Endpoint returns the cohort columns holding this endpoint.
func (m Mode) Endpoint() cohort.Endpoint {
	return cohort.Endpoint{
		TimeColumn:   string(m) + "_months",
		StatusColumn: string(m) + "_status",
	}
}

// Endpoints lists the columns of every supported mode.
func Endpoints() []cohort.Endpoint {
	return []cohort.Endpoint{ModeOverall.Endpoint(), ModeProgressionFree.Endpoint()}
}
