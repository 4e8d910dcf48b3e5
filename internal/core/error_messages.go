package core

// error_messages.go maps technical errors to short messages with an action
// and a code that can be quoted in a support ticket.
//
// Typed errors are matched first with errors.As, then the error text is
// searched for known patterns (case-insensitive, first match wins).
//
// # Codes
//
//	FILE001  Input file not found          check the path
//	FILE002  File could not be parsed      re-export as CSV/XLSX with a header row
//	FILE003  Permission denied             check file permissions
//	DEP001   Spreadsheet support missing   use a build with XLSX support or convert to CSV
//	VAL001   Bad JSON lines                regenerate the entity file
//	VAL002   Too few records               check the source list is complete
//	VAL003   Unknown output format         use simple or graph
//	NET001   Download rejected by server   check the URL
//	NET002   Download implausibly small    the server probably returned an error page
//	NET003   Network unreachable           check connectivity and retry
//	SRC001   Unknown source name           run "sanctions sources"
//	REQ001   Bad screening request         send JSON within the batch limit
//	CFG001   Bad configuration value       fix the named environment variable
//	CTX001   Cancelled
//	CTX002   Timed out
//	ERR000   Anything else                 see the log for the technical error

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/JonMunkholm/sanctions/internal/fetch"
	"github.com/JonMunkholm/sanctions/internal/source"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

var (
	msgNotFound = UserMessage{
		Message: "Input file not found",
		Action:  "Check the path and that the previous pipeline step ran",
		Code:    "FILE001",
	}
	msgMalformed = UserMessage{
		Message: "File could not be parsed",
		Action:  "Re-export the list as CSV or XLSX with a single header row",
		Code:    "FILE002",
	}
	msgPermission = UserMessage{
		Message: "Permission denied",
		Action:  "Check read/write permissions on the input and output paths",
		Code:    "FILE003",
	}
	msgDependency = UserMessage{
		Message: "Spreadsheet support is not available in this build",
		Action:  "Use a build without the noxlsx tag or convert the file to CSV",
		Code:    "DEP001",
	}
	msgBadJSON = UserMessage{
		Message: "Entity file contains lines that are not valid JSON",
		Action:  "Regenerate the file with the transform command",
		Code:    "VAL001",
	}
	msgTooFew = UserMessage{
		Message: "Entity file has fewer records than required",
		Action:  "Check that the source list downloaded completely",
		Code:    "VAL002",
	}
	msgFetchStatus = UserMessage{
		Message: "Download was rejected by the server",
		Action:  "Check the URL; the publisher may have moved the file",
		Code:    "NET001",
	}
	msgFetchSmall = UserMessage{
		Message: "Downloaded file is implausibly small",
		Action:  "The server probably returned an error page; retry later or check the URL",
		Code:    "NET002",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are searched in order; specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "unknown output format",
		msg: UserMessage{
			Message: "Unknown output format",
			Action:  "Use --format simple or --format graph",
			Code:    "VAL003",
		},
	},
	{
		pattern: "unknown source",
		msg: UserMessage{
			Message: "Unknown source name",
			Action:  "Run \"sanctions sources\" to list configured sources",
			Code:    "SRC001",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "Request could not be understood",
			Action:  `Send {"names": [...]} as JSON, within the batch limit`,
			Code:    "REQ001",
		},
	},
	{
		pattern: "invalid configuration",
		msg: UserMessage{
			Message: "Configuration is invalid",
			Action:  "Fix the environment variables listed below, or unset them to use defaults",
			Code:    "CFG001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the server",
			Action:  "Check network connectivity and try again",
			Code:    "NET003",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to reach the server",
			Action:  "Check network connectivity and try again",
			Code:    "NET003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Operation was cancelled",
			Action:  "Run the command again",
			Code:    "CTX001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Increase FETCH_TIMEOUT or try again later",
			Code:    "CTX002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Increase FETCH_TIMEOUT or try again later",
			Code:    "CTX002",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log output for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTyped(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTyped(err error) (UserMessage, bool) {
	var (
		dep       *source.DependencyUnavailableError
		malformed *source.MalformedInputError
		verr      *ValidationError
		ferr      *fetch.FetchError
	)
	switch {
	case errors.As(err, &dep):
		return msgDependency, true
	case errors.As(err, &malformed):
		return msgMalformed, true
	case errors.As(err, &verr):
		if verr.Bad > 0 {
			return msgBadJSON, true
		}
		return msgTooFew, true
	case errors.As(err, &ferr):
		if ferr.TooSmall() {
			return msgFetchSmall, true
		}
		if ferr.Status != 0 {
			return msgFetchStatus, true
		}
		return UserMessage{}, false // transport failure: fall through to patterns
	case errors.Is(err, fs.ErrNotExist):
		return msgNotFound, true
	case errors.Is(err, fs.ErrPermission):
		return msgPermission, true
	}
	return UserMessage{}, false
}

// FormatUserError renders "Message (Code: X). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
