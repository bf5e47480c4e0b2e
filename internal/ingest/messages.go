package ingest

// messages.go maps technical errors to user-facing messages with support
// codes. Patterns are matched case-insensitively with strings.Contains; the
// first match wins, so specific patterns come before general ones.
//
// Code ranges:
//
//	FILE001-FILE099  file handling (size, naming, encoding, parsing)
//	VAL001-VAL099    schema and value validation
//	RUN001-RUN099    run lookup and concurrency
//	STR001-STR099    external stress-calculation service
//	RATE001          request throttling

import (
	"fmt"
	"strings"
)

// UserMessage is user-facing error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference code
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Check for unbalanced quotes near the reported line",
			Code:    "FILE002",
		},
	},
	{
		pattern: "not a .csv file",
		msg: UserMessage{
			Message: "Only .csv files are accepted",
			Action:  "Export your spreadsheet as CSV and upload again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a CSV with a header row and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "missing required columns",
		msg: UserMessage{
			Message: "Required columns are missing from the file",
			Action:  "Compare your headers against the template download",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "A numeric column contains non-numeric values",
			Action:  "Remove currency symbols and use digits only",
			Code:    "VAL002",
		},
	},
	{
		pattern: "diagnostics outstanding",
		msg: UserMessage{
			Message: "The file still has validation issues",
			Action:  "Fix the reported rows and upload again before running a stress test",
			Code:    "VAL003",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "Ingestion run not found",
			Action:  "The run may have been replaced by a newer upload; re-upload the file",
			Code:    "RUN001",
		},
	},
	{
		pattern: "too many concurrent ingestions",
		msg: UserMessage{
			Message: "The system is busy processing other files",
			Action:  "Wait a moment and try again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "stress service",
		msg: UserMessage{
			Message: "The stress-calculation service could not be reached",
			Action:  "Try again in a few moments",
			Code:    "STR001",
		},
	},
	{
		pattern: "malformed stress response",
		msg: UserMessage{
			Message: "The stress-calculation service returned an unexpected response",
			Action:  "Try again; contact support if the problem persists",
			Code:    "STR002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is the ERR000 fallback; check server logs for the original
// technical error when users report it.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
