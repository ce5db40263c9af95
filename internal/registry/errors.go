package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrSync is matched by every SyncError.
	ErrSync = errors.New("command sync failed")
	// ErrDuplicateDeclaration is returned for a declaration whose (type, name, guild) was already declared.
	ErrDuplicateDeclaration = errors.New("duplicate command declaration")
	// ErrGlobalOverwrite is returned when a global command declares overwrites without a guild.
	ErrGlobalOverwrite = errors.New("global command overwrites need an explicit guild")
)

// Sync stages reported in SyncError.
const (
	StageValidate    = "validate"
	StageList        = "list"
	StageCreate      = "create"
	StageUpdate      = "update"
	StagePermissions = "permissions"
	StageDelete      = "delete"
)

// SyncError reports the failure of one declaration within a sync batch.
type SyncError struct {
	Key   ScopedKey
	Stage string
	Err   error
}

func (e *SyncError) Error() string {
	scope := "global"
	if e.Key.GuildID != 0 {
		scope = "guild " + e.Key.GuildID.String()
	}
	return fmt.Sprintf("%s: %q (%s) at %s: %v", ErrSync, e.Key.Name, scope, e.Stage, e.Err)
}

// Is lets errors.Is match ErrSync.
func (e *SyncError) Is(target error) bool {
	return target == ErrSync
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// SyncErrors extracts every SyncError from an error returned by the Engine.
func SyncErrors(err error) []*SyncError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*SyncError
		for _, e := range joined.Unwrap() {
			out = append(out, SyncErrors(e)...)
		}
		return out
	}
	var se *SyncError
	if errors.As(err, &se) {
		return []*SyncError{se}
	}
	return nil
}
