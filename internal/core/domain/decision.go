package domain

// Outcome is what the authorization state machine decided for one interaction.
type Outcome string

const (
	OutcomeLoginPrompt         Outcome = "login_prompt"
	OutcomeAuthLink            Outcome = "auth_link"
	OutcomeLoginFailed         Outcome = "login_failed"
	OutcomeAuthorized          Outcome = "authorized"
	OutcomeAuthorizationFailed Outcome = "authorization_failed"
	OutcomeAlreadyAuthorized   Outcome = "already_authorized"
	OutcomeMainMenu            Outcome = "main_menu"
)

// Decision is rendered by the presentation layer.
type Decision struct {
	Outcome Outcome
	// AuthURL is set for OutcomeAuthLink.
	AuthURL string
	// Username is set for OutcomeAuthorized.
	Username string
	// DeleteMessage is the message to remove after a successful authorization.
	DeleteMessage *MessageRef
}
