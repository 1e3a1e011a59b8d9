package session

// Pre-authored user-facing texts. Every pipeline outcome maps to some
// reply; raw errors never reach the thread.

// DefaultCrisisResponse is returned for flagged messages. It is sent
// instead of calling the completion service and is never stored.
const DefaultCrisisResponse = `I'm right here with you... what you're sharing sounds incredibly painful, and you matter so much.

I'm not equipped to handle crises, so please reach out to real support right now.

**If you're in India:**
- iCall: 9152987821
- Vandrevala Foundation: 9999666555
- Sneha: 044-24640050

**Global:**
- Crisis Text Line: Text HOME to 741741
- Or call your local emergency services

I'm still here if you want to share more, but please contact someone who can truly help. You don't have to carry this alone.`

// Fallback replies, one per completion failure kind. Distinct on purpose
// so operators can tell the paths apart from user reports.
const (
	DefaultTimeoutFallback   = "I'm here... just taking a breath. Try again in a moment?"
	DefaultUpstreamFallback  = "I'm here with you... something went quiet on my end. Try again?"
	DefaultTransportFallback = "I'm here with you... sometimes words are hard to find, but I'm listening."
)

// Farewell texts for session close.
const (
	DefaultFarewell = "Session closed and all memory cleared.\n" +
		"Take care of yourself... you did something good by talking today. ❤️"
	DefaultFarewellNothingStored = "Closing this space... nothing stored to clear.\n" +
		"Take care. ❤️"
)

// DefaultWelcome is the thread opener; the first %s is the user mention,
// the second is the assistant's first reply.
const DefaultWelcome = "Hey %s, this is your space.\n" +
	"Say whatever you need to... I'm here.\n\n" +
	"%s\n\n" +
	"-# Gentle note — I'm not a human therapist. Our chats aren't confidential like real therapy. " +
	"Use `/close` whenever you're done."
