// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

// Package validation wraps a shared go-playground/validator instance.
//
// Besides the built-in tags it registers "logtime", which accepts the
// "YYYY-MM-DD HH:MM:SS" timestamps written by the interaction logs:
//
//	type Record struct {
//	    Action    string `validate:"required,oneof=OPEN CLOSE"`
//	    Timestamp string `validate:"required,logtime"`
//	}
//
//	if verr := validation.ValidateStruct(&rec); verr != nil {
//	    return fmt.Errorf("record %d: %w", i, verr)
//	}
package validation
