package taxonomy

import "strings"

// Audience field names carried by assignment CSVs.
const (
	FieldPrimaryAudience   = "target_audience"
	FieldSecondaryAudience = "secondary_target_audience"
)

// audienceChoices maps stored audience values to their display labels. CSV
// cells carry the labels; records store the values.
var audienceChoices = []Option{
	{Value: "addiction_specialists", Label: "Addiction Specialists"},
	{Value: "administrators_in_community_health_organization", Label: "Administrators in Community Health Organization"},
	{Value: "community_health_workers", Label: "Community Health Workers"},
	{Value: "counselors_mental_health_workers_social_workers", Label: "Counselors/Mental Health Workers/Social Workers"},
	{Value: "dentists", Label: "Dentists"},
	{Value: "education-related_professionals", Label: "Education-Related Professionals"},
	{Value: "emts_firefighters_non-police_first_responders", Label: "EMTs/Firefighters/Non-Police First Responders"},
	{Value: "faith-based_professionals", Label: "Faith-Based Professionals"},
	{Value: "family_parents_caregivers_of_people_experiencing_substance_use_disorder", Label: "Family, Parents, Caregivers of People Experiencing Substance Use Disorder"},
	{Value: "general_population", Label: "General Population"},
	{Value: "health_care_administrators", Label: "Health Care Administrators"},
	{Value: "justice-related_professionals", Label: "Justice-Related Professionals"},
	{Value: "local_government_staff", Label: "Local Government Staff"},
	{Value: "nurses_nurse_practitioners", Label: "Nurses/Nurse Practitioners"},
	{Value: "peer_specialists", Label: "Peer Specialists"},
	{Value: "physicians", Label: "Physicians"},
	{Value: "physician_assistants", Label: "Physician Assistants"},
	{Value: "prevention_professionals", Label: "Prevention Professionals"},
	{Value: "psychologists", Label: "Psychologists"},
	{Value: "students", Label: "Students"},
	{Value: "volunteers", Label: "Volunteers"},
}

var audienceByLabel = func() map[string]string {
	m := make(map[string]string, len(audienceChoices))
	for _, choice := range audienceChoices {
		m[choice.Label] = choice.Value
	}
	return m
}()

// AudienceOptions returns the full audience vocabulary in declaration order.
func AudienceOptions() []Option {
	out := make([]Option, len(audienceChoices))
	copy(out, audienceChoices)
	return out
}

// SplitAudienceLabels splits a comma-separated audience cell into labels,
// greedily reassembling known compound labels that themselves contain
// commas. Up to six consecutive comma parts are tried longest first.
func SplitAudienceLabels(raw string) []string {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var labels []string
	idx := 0
	for idx < len(parts) {
		matched := false
		for lookahead := min(6, len(parts)-idx); lookahead > 0; lookahead-- {
			candidate := strings.Join(parts[idx:idx+lookahead], ", ")
			if _, ok := audienceByLabel[candidate]; ok {
				labels = append(labels, candidate)
				idx += lookahead
				matched = true
				break
			}
		}
		if !matched {
			labels = append(labels, parts[idx])
			idx++
		}
	}
	return labels
}

// ResolveAudience resolves a raw audience cell for the given field. The
// returned values are the stored audience values in label order; an empty
// cell yields nil values. An unknown label suspends with a mismatch whose
// options are the whole vocabulary; memory hits (including Skip) take
// precedence over the vocabulary.
func ResolveAudience(raw, field string, memory Memory) ([]string, *Mismatch) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var values []string
	for _, label := range SplitAudienceLabels(raw) {
		key := AudienceKey(field, label)

		if resolved, ok := memory[key]; ok {
			if resolved != Skip {
				values = append(values, resolved)
			}
			continue
		}

		if value, ok := audienceByLabel[label]; ok {
			values = append(values, value)
			continue
		}

		return nil, &Mismatch{
			MappingKey: key,
			CSVValue:   label,
			Options:    AudienceOptions(),
		}
	}

	return values, nil
}
