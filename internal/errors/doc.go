// Package errors provides the structured error type shared by the bot's core packages.
//
// Errors carry a Code, a message that is safe to show back in chat, an optional
// cause, and free-form metadata:
//
//	err := errors.AlreadyExists("Duplicate Interaction Event").
//	    WithMeta("identity", userID).
//	    WithMeta("kind", "battle")
//
// Wrapping keeps the original code so callers can branch on it:
//
//	if err := repo.Get(ctx, input); err != nil {
//	    return errors.Wrap(err, "failed to load profile")
//	}
//
//	if errors.IsAlreadyExists(err) {
//	    // tell the user their previous session is still open
//	}
//
// Command glue should use UserMessage to turn any error into a reply; only
// user-correctable codes (invalid argument, not found, already exists,
// permission denied, failed precondition) expose their message.
//
// Layer guidelines:
//   - Repositories return NotFound for missing documents and wrap backend failures.
//   - Orchestrators validate input with the ValidationBuilder and return typed
//     registration errors instead of panicking.
package errors
