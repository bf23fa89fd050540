package schema

import (
	"fmt"
	"strings"
)

// forbiddenKeys are identifying field names that must never appear in
// generated data, in English and French.
var forbiddenKeys = map[string]bool{
	"phi": true, "surname": true, "first_name": true, "last_name": true,
	"full_name": true, "patient_name": true, "patient_first_name": true,
	"patient_last_name": true, "email": true, "phone": true, "address": true,
	"street": true, "city": true, "postal_code": true, "zip": true,
	"dob": true, "date_of_birth": true, "nir": true, "ssn": true,
	"nom": true, "prenom": true, "adresse": true, "telephone": true,
	"téléphone": true, "mail": true, "code_postal": true, "ville": true,
	"date_naissance": true,
}

// IsForbiddenKey reports whether key names an identifying field. The
// comparison is case-insensitive.
func IsForbiddenKey(key string) bool { return forbiddenKeys[strings.ToLower(key)] }

// ForbiddenKeys walks a decoded JSON value and returns the path of every
// object key that names an identifying field.
func ForbiddenKeys(v any) []string {
	norm, err := normalize(v)
	if err != nil {
		return nil
	}
	var paths []string
	walkKeys(norm, "$", &paths)
	return paths
}

func walkKeys(v any, path string, out *[]string) {
	switch x := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(x) {
			p := path + "." + k
			if IsForbiddenKey(k) {
				*out = append(*out, p)
			}
			walkKeys(x[k], p, out)
		}
	case []any:
		for i, item := range x {
			walkKeys(item, fmt.Sprintf("%s[%d]", path, i), out)
		}
	}
}
