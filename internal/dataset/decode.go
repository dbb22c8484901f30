package dataset

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
)

// Decode builds calendar.Data from a parsed document. The first bad entry
// fails the whole document; nothing is dropped silently.
func Decode(doc map[string]any, integrity calendar.Integrity) (*calendar.Data, error) {
	rawDays, err := requireObject(doc, "days")
	if err != nil {
		return nil, err
	}
	scriptures, err := decodeScriptures(doc)
	if err != nil {
		return nil, err
	}
	meta, err := decodeMetadata(doc)
	if err != nil {
		return nil, err
	}

	// Sorted keys keep error reporting deterministic.
	keys := make([]string, 0, len(rawDays))
	for k := range rawDays {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[calendar.Date]string, len(keys))
	days := make([]calendar.Day, 0, len(keys))
	for _, key := range keys {
		day, err := decodeDay(key, rawDays[key])
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[day.Date]; dup {
			return nil, malformed(key, "", "normalizes to the same date as %s", prev)
		}
		seen[day.Date] = key
		days = append(days, day)
	}

	data, err := calendar.NewData(days, scriptures, meta, integrity)
	if err != nil {
		return nil, malformed("", "days", "%v", err)
	}
	return data, nil
}

func decodeDay(key string, raw any) (calendar.Day, error) {
	date, err := calendar.ParseDate(key)
	if err != nil {
		return calendar.Day{}, malformed(key, "", "invalid date key: %v", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return calendar.Day{}, malformed(key, "", "expected object, got %s", typeName(raw))
	}

	day := calendar.Day{Date: date}

	phase, ok := obj["phase"]
	if !ok {
		return calendar.Day{}, malformed(key, "phase", "required field missing")
	}
	phaseName, ok := phase.(string)
	if !ok {
		return calendar.Day{}, malformed(key, "phase", "expected string, got %s", typeName(phase))
	}
	day.Phase = calendar.ParseMoonPhase(phaseName)

	angle, ok := obj["angle"]
	if !ok {
		return calendar.Day{}, malformed(key, "angle", "required field missing")
	}
	if day.Angle, err = toFloat(angle); err != nil {
		return calendar.Day{}, malformed(key, "angle", "%v", err)
	}

	for field, dst := range map[string]*bool{
		"isSabbath": &day.IsSabbath,
		"isNewMoon": &day.IsNewMoon,
		"isNewYear": &day.IsNewYear,
	} {
		v, present := obj[field]
		if !present {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return calendar.Day{}, malformed(key, field, "expected boolean, got %s", typeName(v))
		}
		*dst = b
	}

	if v, present := obj["newMoonAngle"]; present && v != nil {
		a, err := toFloat(v)
		if err != nil {
			return calendar.Day{}, malformed(key, "newMoonAngle", "%v", err)
		}
		day.NewMoonAngle = &a
	}

	if v, present := obj["feast"]; present && v != nil {
		feast, err := decodeFeast(key, v)
		if err != nil {
			return calendar.Day{}, err
		}
		day.Feast = feast
	}

	return day, nil
}

func decodeFeast(key string, raw any) (*calendar.FeastDay, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, malformed(key, "feast", "expected object, got %s", typeName(raw))
	}

	name, ok := obj["name"]
	if !ok {
		return nil, malformed(key, "feast.name", "required field missing")
	}
	feast := &calendar.FeastDay{BibleRefs: []string{}}
	if feast.Name, ok = name.(string); !ok {
		return nil, malformed(key, "feast.name", "expected string, got %s", typeName(name))
	}

	if desc, present := obj["description"]; present && desc != nil {
		s, ok := desc.(string)
		if !ok {
			return nil, malformed(key, "feast.description", "expected string, got %s", typeName(desc))
		}
		feast.Description = &s
	}

	if refs, present := obj["bibleRefs"]; present && refs != nil {
		list, ok := refs.([]any)
		if !ok {
			return nil, malformed(key, "feast.bibleRefs", "expected array, got %s", typeName(refs))
		}
		for i, r := range list {
			s, ok := r.(string)
			if !ok {
				return nil, malformed(key, fmt.Sprintf("feast.bibleRefs[%d]", i), "expected string, got %s", typeName(r))
			}
			feast.BibleRefs = append(feast.BibleRefs, s)
		}
	}

	return feast, nil
}

func decodeScriptures(doc map[string]any) (map[string]string, error) {
	obj, err := requireObject(doc, "scriptures")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(obj))
	for ref, v := range obj {
		text, ok := v.(string)
		if !ok {
			return nil, malformed("", "scriptures."+ref, "expected string, got %s", typeName(v))
		}
		out[ref] = text
	}
	return out, nil
}

func decodeMetadata(doc map[string]any) (calendar.Metadata, error) {
	var meta calendar.Metadata

	if v, ok := doc["generatedAt"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return meta, malformed("", "generatedAt", "expected string, got %s", typeName(v))
		}
		meta.GeneratedAt = s
	}

	if v, ok := doc["dateRange"]; ok && v != nil {
		obj, ok := v.(map[string]any)
		if !ok {
			return meta, malformed("", "dateRange", "expected object, got %s", typeName(v))
		}
		for field, dst := range map[string]**calendar.Date{"start": &meta.RangeStart, "end": &meta.RangeEnd} {
			raw, present := obj[field]
			if !present {
				continue
			}
			d, err := toDate(raw)
			if err != nil {
				return meta, malformed("", "dateRange."+field, "%v", err)
			}
			*dst = &d
		}
	}

	if v, ok := doc["newMoons"]; ok && v != nil {
		list, ok := v.([]any)
		if !ok {
			return meta, malformed("", "newMoons", "expected array, got %s", typeName(v))
		}
		for i, item := range list {
			field := fmt.Sprintf("newMoons[%d]", i)
			obj, ok := item.(map[string]any)
			if !ok {
				return meta, malformed("", field, "expected object, got %s", typeName(item))
			}
			d, err := toDate(obj["date"])
			if err != nil {
				return meta, malformed("", field+".date", "%v", err)
			}
			a, err := toFloat(obj["angle"])
			if err != nil {
				return meta, malformed("", field+".angle", "%v", err)
			}
			meta.NewMoons = append(meta.NewMoons, calendar.NewMoonMark{Date: d, Angle: a})
		}
	}

	for field, dst := range map[string]*[]calendar.Date{"sabbaths": &meta.Sabbaths, "newYears": &meta.NewYears} {
		v, ok := doc[field]
		if !ok || v == nil {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			return meta, malformed("", field, "expected array, got %s", typeName(v))
		}
		for i, item := range list {
			d, err := toDate(item)
			if err != nil {
				return meta, malformed("", fmt.Sprintf("%s[%d]", field, i), "%v", err)
			}
			*dst = append(*dst, d)
		}
	}

	return meta, nil
}

func requireObject(doc map[string]any, field string) (map[string]any, error) {
	v, ok := doc[field]
	if !ok {
		return nil, malformed("", field, "required field missing")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, malformed("", field, "expected object, got %s", typeName(v))
	}
	return obj, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %s", n)
		}
		return f, nil
	case float64:
		return n, nil
	case nil:
		return 0, fmt.Errorf("required number missing")
	}
	return 0, fmt.Errorf("expected number, got %s", typeName(v))
}

func toDate(v any) (calendar.Date, error) {
	s, ok := v.(string)
	if !ok {
		if v == nil {
			return calendar.Date{}, fmt.Errorf("required date missing")
		}
		return calendar.Date{}, fmt.Errorf("expected date string, got %s", typeName(v))
	}
	return calendar.ParseDate(s)
}
