package telegram

import "strings"

// Callback tokens ride in the inline-button callback data as
// "<discriminator>_<subaction>_<id>". The discriminator is fixed when the
// token is created; the bot channel also carries unrelated token families
// (login approvals among them), so parsers dispatch on the discriminator
// and never infer a token's type from its payload.
const (
	DiscriminatorOrder = "order"
	DiscriminatorLogin = "login"
)

// ActionToken is one parsed callback token.
type ActionToken struct {
	Discriminator string
	Subaction     string
	ID            string
}

// OrderActionToken builds the callback data for an order approval button.
// The order id is a bearer capability: whoever holds a valid token can act
// on exactly that order and nothing else.
func OrderActionToken(subaction, orderID string) string {
	return DiscriminatorOrder + "_" + subaction + "_" + orderID
}

// ParseActionToken splits callback data into its three fields. Only the
// first two underscores delimit; the id may contain more.
func ParseActionToken(data string) (ActionToken, bool) {
	parts := strings.SplitN(data, "_", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return ActionToken{}, false
	}
	return ActionToken{
		Discriminator: parts[0],
		Subaction:     parts[1],
		ID:            parts[2],
	}, true
}
