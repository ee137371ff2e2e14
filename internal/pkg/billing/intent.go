package billing

import "strings"

// Intent is the business workflow a completed checkout session belongs to.
type Intent string

const (
	IntentSubscription      Intent = "subscription"
	IntentEventRegistration Intent = "event_registration"
	IntentCourseEnrollment  Intent = "course_enrollment"
	IntentStorePurchase     Intent = "store_purchase"
	IntentUnclassified      Intent = "unclassified"
)

// Checkout metadata keys written when sessions are created.
const (
	metaType             = "type"
	metaPractitionerID   = "practitionerId"
	metaTier             = "tier"
	metaEventID          = "eventId"
	metaEmail            = "email"
	metaFirstName        = "firstName"
	metaLastName         = "lastName"
	metaCourseID         = "courseId"
	metaUserID           = "userId"
	metaUserEmail        = "userEmail"
	metaItems            = "items"
	metaHasPhysicalItems = "hasPhysicalItems"
)

func (i Intent) known() bool {
	switch i {
	case IntentSubscription, IntentEventRegistration, IntentCourseEnrollment, IntentStorePurchase:
		return true
	default:
		return false
	}
}

type intentRule struct {
	name  string
	match func(md map[string]string) (Intent, bool)
}

func hasMeta(md map[string]string, key string) bool {
	return strings.TrimSpace(md[key]) != ""
}

func requireKeys(intent Intent, keys ...string) func(map[string]string) (Intent, bool) {
	return func(md map[string]string) (Intent, bool) {
		for _, k := range keys {
			if !hasMeta(md, k) {
				return "", false
			}
		}
		return intent, true
	}
}

// checkoutIntentRules are evaluated in order; the first match wins. Rules
// after the explicit tag exist for sessions created before sessions were
// tagged with a type.
var checkoutIntentRules = []intentRule{
	{name: "explicit_type", match: func(md map[string]string) (Intent, bool) {
		if !hasMeta(md, metaType) {
			return "", false
		}
		intent := Intent(strings.TrimSpace(md[metaType]))
		if !intent.known() {
			return IntentUnclassified, true
		}
		return intent, true
	}},
	{name: "legacy_subscription", match: requireKeys(IntentSubscription, metaPractitionerID, metaTier)},
	{name: "legacy_event", match: requireKeys(IntentEventRegistration, metaEventID)},
	{name: "legacy_course", match: requireKeys(IntentCourseEnrollment, metaCourseID)},
	{name: "legacy_store", match: requireKeys(IntentStorePurchase, metaItems)},
}

// ClassifyCheckout determines the workflow for a checkout session from its
// metadata. It always returns one of the Intent constants.
func ClassifyCheckout(metadata map[string]string) Intent {
	intent, _ := classifyCheckout(metadata)
	return intent
}

func classifyCheckout(metadata map[string]string) (Intent, string) {
	for _, rule := range checkoutIntentRules {
		if intent, ok := rule.match(metadata); ok {
			return intent, rule.name
		}
	}
	return IntentUnclassified, ""
}
