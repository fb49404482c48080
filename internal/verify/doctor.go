package verify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const nmcURL = "https://www.nmc.org.in/MCIRest/open/getPaginatedData"

// DefaultSimilarityThreshold is deliberately low: NMC rows are keyed by
// registration number, the name check only guards against obvious
// mismatches.
const DefaultSimilarityThreshold = 0.2

var doctorIDPattern = regexp.MustCompile(`openDoctorDetailsnew\('(\d+)'`)

// DoctorRecord is one row of the NMC Indian Medical Register.
type DoctorRecord struct {
	SerialNo           string  `json:"serial_no"`
	RegistrationYear   string  `json:"registration_year"`
	RegistrationNumber string  `json:"registration_number"`
	MedicalCouncil     string  `json:"medical_council"`
	DoctorName         string  `json:"doctor_name"`
	FatherOrSpouseName string  `json:"father_or_spouse_name"`
	DoctorID           string  `json:"doctor_id,omitempty"`
	NameSimilarity     float64 `json:"name_similarity"`
}

// Result is the outcome of a doctor verification lookup.
type Result struct {
	Verified     bool           `json:"verified"`
	Reason       string         `json:"reason"`
	Matches      []DoctorRecord `json:"matches"`
	BestMatch    *DoctorRecord  `json:"best_match,omitempty"`
	TotalMatches int            `json:"total_matches"`
}

// Client queries the NMC registry and ranks rows by how closely the
// registered name matches the name on the prescription.
type Client struct {
	threshold  float64
	httpClient *http.Client
}

func NewClient(threshold float64) *Client {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Client{
		threshold: threshold,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				// The NMC endpoint serves a certificate chain many trust
				// stores cannot validate.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// VerifyDoctor checks whether a doctor with the given registration number
// exists in the NMC register under a sufficiently similar name.
// medicalCouncil is optional; when set, only rows registered with that
// state council are considered.
func (c *Client) VerifyDoctor(ctx context.Context, doctorName, registrationNo, medicalCouncil string) (*Result, error) {
	if strings.TrimSpace(registrationNo) == "" {
		return &Result{
			Verified: false,
			Reason:   "No registration number provided",
			Matches:  []DoctorRecord{},
		}, nil
	}

	records, err := c.fetchByRegistration(ctx, registrationNo)
	if err != nil {
		return nil, err
	}
	if council := strings.TrimSpace(medicalCouncil); council != "" && len(records) > 0 {
		records = filterByCouncil(records, council)
		if len(records) == 0 {
			return &Result{
				Verified: false,
				Reason:   fmt.Sprintf("No doctors with registration number %s are registered with %s", registrationNo, council),
				Matches:  []DoctorRecord{},
			}, nil
		}
	}
	if len(records) == 0 {
		return &Result{
			Verified: false,
			Reason:   fmt.Sprintf("No doctors found with registration number %s", registrationNo),
			Matches:  []DoctorRecord{},
		}, nil
	}

	for i := range records {
		records[i].NameSimilarity = nameSimilarity(doctorName, records[i].DoctorName)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].NameSimilarity > records[j].NameSimilarity
	})

	best := records[0]
	result := &Result{
		Matches:      records,
		BestMatch:    &best,
		TotalMatches: len(records),
	}
	if best.NameSimilarity >= c.threshold {
		result.Verified = true
		result.Reason = fmt.Sprintf("Doctor verified with %.1f%% name match", best.NameSimilarity*100)
	} else {
		result.Reason = fmt.Sprintf("Name similarity too low (%.1f%%). Possible match found but requires manual verification.",
			best.NameSimilarity*100)
	}
	return result, nil
}

func (c *Client) fetchByRegistration(ctx context.Context, registrationNo string) ([]DoctorRecord, error) {
	params := url.Values{
		"service":                {"getPaginatedDoctor"},
		"draw":                   {"1"},
		"start":                  {"0"},
		"length":                 {"50"},
		"columns[0][data]":       {"0"},
		"columns[0][searchable]": {"true"},
		"columns[0][orderable]":  {"true"},
		"order[0][column]":       {"0"},
		"order[0][dir]":          {"asc"},
		"registrationNo":         {registrationNo},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", nmcURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "https://www.nmc.org.in/information-desk/indian-medical-register/")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("NMC request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("NMC API returned status %s: %s", resp.Status, string(body))
	}

	var payload struct {
		Data [][]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("NMC response is not valid JSON: %w", err)
	}

	records := make([]DoctorRecord, 0, len(payload.Data))
	for _, row := range payload.Data {
		rec, ok := parseDoctorRow(row)
		if !ok {
			log.Printf("verify: skipping malformed NMC row with %d cells", len(row))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// filterByCouncil keeps only rows registered with the given state council.
// Registry rows spell councils in varying forms, so a case-insensitive
// substring match either way is enough.
func filterByCouncil(records []DoctorRecord, council string) []DoctorRecord {
	want := strings.ToLower(council)
	out := make([]DoctorRecord, 0, len(records))
	for _, rec := range records {
		got := strings.ToLower(rec.MedicalCouncil)
		if got == "" {
			continue
		}
		if strings.Contains(got, want) || strings.Contains(want, got) {
			out = append(out, rec)
		}
	}
	return out
}

// parseDoctorRow converts a raw DataTables row into a DoctorRecord. Row
// layout: serial, registration year, registration number, council, name,
// father/spouse name, action HTML carrying the doctor id.
func parseDoctorRow(row []any) (DoctorRecord, bool) {
	if len(row) < 7 {
		return DoctorRecord{}, false
	}
	rec := DoctorRecord{
		SerialNo:           cellString(row[0]),
		RegistrationYear:   cellString(row[1]),
		RegistrationNumber: cellString(row[2]),
		MedicalCouncil:     cellString(row[3]),
		DoctorName:         cellString(row[4]),
		FatherOrSpouseName: cellString(row[5]),
	}
	if m := doctorIDPattern.FindStringSubmatch(cellString(row[6])); m != nil {
		rec.DoctorID = m[1]
	}
	return rec, true
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// nameSimilarity is a character-bigram Dice coefficient over normalized
// names: titles and punctuation stripped, case folded.
func nameSimilarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	ba, bb := bigrams(na), bigrams(nb)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	shared := 0
	for g, n := range ba {
		if m, ok := bb[g]; ok {
			if m < n {
				n = m
			}
			shared += n
		}
	}
	total := 0
	for _, n := range ba {
		total += n
	}
	for _, n := range bb {
		total += n
	}
	return 2 * float64(shared) / float64(total)
}

var nameTitles = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "miss": true, "ms": true,
}

func normalizeName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,()")
		if w == "" || nameTitles[w] {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func bigrams(s string) map[string]int {
	runes := []rune(s)
	out := make(map[string]int, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		out[string(runes[i:i+2])]++
	}
	return out
}
