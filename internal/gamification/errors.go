package gamification

import "errors"

// ErrDuplicateEvent signals that the dedup constraint already holds an event
// for the same (user, kind, source) triple. Callers crediting points from
// session or publishing flows treat this as a benign no-op.
var ErrDuplicateEvent = errors.New("duplicate point event")

// ErrBadgeAlreadyAwarded signals the unique award constraint fired during
// evaluation. Concurrent evaluators may both qualify a user; only one insert
// wins and the loser skips the badge.
var ErrBadgeAlreadyAwarded = errors.New("badge already awarded")
