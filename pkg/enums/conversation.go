package enums

// ConversationKind distinguishes conversation flavors.
type ConversationKind string

const (
	ConversationKindChat ConversationKind = "CHAT"
)

// InteractionKind labels what a user did with a provider.
type InteractionKind string

const (
	InteractionKindView    InteractionKind = "view"
	InteractionKindRequest InteractionKind = "request"
	InteractionKindOrder   InteractionKind = "order"
	InteractionKindMessage InteractionKind = "message"
)
