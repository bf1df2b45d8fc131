//
// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package table

import "strings"

// Format tags the kind of civic data a table appears to hold. It only picks a
// friendly label and never blocks an analysis.
type Format string

// Known formats, in detection priority order.
const (
	Enrollment Format = "enrollment"
	Health     Format = "health"
	Voting     Format = "voting"
	Census     Format = "census"
	Survey     Format = "survey"
	Custom     Format = "custom"
)

var formatKeywords = []struct {
	format   Format
	keywords []string
}{
	{Enrollment, []string{"student", "enrollment", "grade"}},
	{Health, []string{"patient", "condition", "diagnosis"}},
	{Voting, []string{"voter", "precinct", "ballot"}},
	{Census, []string{"household", "census", "population"}},
	{Survey, []string{"response", "survey", "question"}},
}

// DetectFormat matches header names against each format's keywords, case
// insensitively, and returns the first format with a hit. It falls back to
// Custom.
func DetectFormat(headers []string) Format {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, fk := range formatKeywords {
		for _, h := range lower {
			for _, kw := range fk.keywords {
				if strings.Contains(h, kw) {
					return fk.format
				}
			}
		}
	}
	return Custom
}

// FormatInfo describes a Format for display.
type FormatInfo struct {
	Name           string
	Description    string
	RequiredFields []string
	OptionalFields []string
	Example        string
}

var formats = map[Format]FormatInfo{
	Census: {
		Name:           "Census/Population Data",
		Description:    "Individual or household records with demographic info",
		RequiredFields: []string{"id"},
		OptionalFields: []string{"age", "income", "household_size", "location", "race", "gender"},
		Example:        "id,age,income,household_size,location\n1,34,45000,3,district_A\n2,28,52000,2,district_A",
	},
	Enrollment: {
		Name:           "School Enrollment Data",
		Description:    "Student records for funding eligibility",
		RequiredFields: []string{"student_id"},
		OptionalFields: []string{"school", "grade", "free_lunch_eligible", "district", "special_ed"},
		Example:        "student_id,school,grade,free_lunch_eligible,district\nS001,Oak Elementary,3,yes,district_12\nS002,Oak Elementary,4,no,district_12",
	},
	Health: {
		Name:           "Health/Medical Data",
		Description:    "Patient or population health records",
		RequiredFields: []string{"record_id"},
		OptionalFields: []string{"age", "condition", "facility", "zip_code", "visit_type"},
		Example:        "record_id,age,condition,facility,zip_code\nR001,67,diabetes,clinic_north,90210\nR002,45,hypertension,clinic_north,90210",
	},
	Voting: {
		Name:           "Voter/Redistricting Data",
		Description:    "Voter registration or population for redistricting",
		RequiredFields: []string{"voter_id"},
		OptionalFields: []string{"precinct", "district", "age", "registration_date"},
		Example:        "voter_id,precinct,district,age\nV00001,precinct_42,district_7,34\nV00002,precinct_42,district_7,56",
	},
	Survey: {
		Name:           "Survey Response Data",
		Description:    "Survey or questionnaire responses",
		RequiredFields: []string{"response_id"},
		OptionalFields: []string{"question_1", "question_2", "question_3", "region", "timestamp"},
		Example:        "response_id,question_1,question_2,region\nR1,yes,5,north\nR2,no,3,north",
	},
	Custom: {
		Name:           "Custom Data",
		Description:    "Any tabular data with unique identifiers",
		RequiredFields: []string{"id"},
		Example:        "id,category,value,group\n1,A,100,group1\n2,B,150,group1",
	},
}

// Describe returns the catalog entry for f. Unknown formats are described as
// Custom.
func Describe(f Format) FormatInfo {
	if info, ok := formats[f]; ok {
		return info
	}
	return formats[Custom]
}
