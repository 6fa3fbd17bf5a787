package brackets

import "errors"

// Closed error set of the progression engines. Callers (HTTP layer, bots)
// map these to their own status codes; the engines never return raw strings.
var (
	ErrUnknownFormat = errors.New("unknown tournament format")
	ErrStateFormat   = errors.New("state does not belong to this format engine")

	ErrInvalidEntrantCount    = errors.New("invalid entrant count for this format")
	ErrBracketSizeUnsupported = errors.New("entrant count must be a power of two")
	ErrChampionNotFound       = errors.New("champion id does not match any entrant")
	ErrInvalidChallengerOrder = errors.New("challenger order is not a permutation of the entrants")

	ErrMatchNotFound         = errors.New("match not found in tournament state")
	ErrMatchAlreadyCompleted = errors.New("match result has already been recorded")
	ErrMatchNotPlayable      = errors.New("match is still waiting for an earlier result")
	ErrInvalidWinner         = errors.New("winner is not one of the match participants")
	ErrInvalidMatchNumber    = errors.New("match number is out of range")

	ErrRecordsNotFound = errors.New("score records not initialized for entrant")
	ErrRoundIncomplete = errors.New("previous round still has unresolved matches")
	ErrNoValidPairing  = errors.New("no legal pairing can be produced")

	ErrOrganizerOnly = errors.New("operation allowed for organizers only")
)
