package taxonomy

// fallbackWeaknessNames covers the CWEs most often cited by autopilot and
// ground-station advisories. It is used when the catalog cannot be loaded.
var fallbackWeaknessNames = map[string]string{
	"20":  "Improper Input Validation",
	"22":  "Improper Limitation of a Pathname to a Restricted Directory ('Path Traversal')",
	"78":  "Improper Neutralization of Special Elements used in an OS Command ('OS Command Injection')",
	"79":  "Improper Neutralization of Input During Web Page Generation ('Cross-site Scripting')",
	"89":  "Improper Neutralization of Special Elements used in an SQL Command ('SQL Injection')",
	"94":  "Improper Control of Generation of Code ('Code Injection')",
	"119": "Improper Restriction of Operations within the Bounds of a Memory Buffer",
	"120": "Buffer Copy without Checking Size of Input ('Classic Buffer Overflow')",
	"125": "Out-of-bounds Read",
	"190": "Integer Overflow or Wraparound",
	"200": "Exposure of Sensitive Information to an Unauthorized Actor",
	"284": "Improper Access Control",
	"287": "Improper Authentication",
	"306": "Missing Authentication for Critical Function",
	"311": "Missing Encryption of Sensitive Data",
	"319": "Cleartext Transmission of Sensitive Information",
	"352": "Cross-Site Request Forgery (CSRF)",
	"400": "Uncontrolled Resource Consumption",
	"416": "Use After Free",
	"476": "NULL Pointer Dereference",
	"787": "Out-of-bounds Write",
	"798": "Use of Hard-coded Credentials",
	"862": "Missing Authorization",
	"863": "Incorrect Authorization",
}

func fallbackNames() map[string]string {
	out := make(map[string]string, len(fallbackWeaknessNames))
	for k, v := range fallbackWeaknessNames {
		out[k] = v
	}
	return out
}
