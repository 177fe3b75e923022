package schedule

// Confidence qualifies a declared availability: definite or tentative.
type Confidence string

const (
	Sure  Confidence = "sure"
	Maybe Confidence = "maybe"
)

// Subscriber identifies the owner of availability rules. It is a tagged
// identity over registered users and anonymous (email-based) subscriptions;
// the zero value is invalid and the constructors are the only way to build
// one, so "neither" and "both" owner states are unrepresentable.
type Subscriber struct {
	kind string
	id   string
}

func RegisteredUser(id string) Subscriber {
	return Subscriber{kind: "user", id: id}
}

func AnonymousSubscriber(id string) Subscriber {
	return Subscriber{kind: "anon", id: id}
}

// Key is the deduplication identity: "user:<id>" or "anon:<id>".
// Never derived from name or email.
func (s Subscriber) Key() string {
	return s.kind + ":" + s.id
}

func (s Subscriber) ID() string {
	return s.id
}

func (s Subscriber) Registered() bool {
	return s.kind == "user"
}

func (s Subscriber) IsZero() bool {
	return s.kind == "" && s.id == ""
}
