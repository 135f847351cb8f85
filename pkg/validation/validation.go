package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// EmailRegex validates email format
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// ActorIDRegex validates actor ID format
	ActorIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_@.\-]+$`)

	// VideoIDRegex validates video ID format
	VideoIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
)

// ValidateEmail validates email address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateActorID validates an actor identifier
func ValidateActorID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("actor id is required")
	}
	if len(id) > 128 {
		return fmt.Errorf("actor id is too long (max 128 characters)")
	}
	if !ActorIDRegex.MatchString(id) {
		return fmt.Errorf("actor id contains invalid characters")
	}
	return nil
}

// ValidateVideoID validates a video identifier
func ValidateVideoID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("video id is required")
	}
	if len(id) > 128 {
		return fmt.Errorf("video id is too long (max 128 characters)")
	}
	if !VideoIDRegex.MatchString(id) {
		return fmt.Errorf("video id contains invalid characters")
	}
	return nil
}

// ValidateFilename validates an uploaded video filename
func ValidateFilename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("filename is required")
	}
	if len(name) > 255 {
		return fmt.Errorf("filename is too long (max 255 characters)")
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("filename must not contain path separators")
	}
	return nil
}

// ValidateAnnotationBody validates annotation content
func ValidateAnnotationBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("annotation body is required")
	}
	if len(body) > 4096 {
		return fmt.Errorf("annotation body is too long (max 4096 characters)")
	}
	return nil
}
