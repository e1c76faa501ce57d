package pricing

import "sort"

// regionToLocation maps AWS region codes to their Price List location names
var regionToLocation = map[string]string{
	// US Regions
	"us-east-1":     "US East (N. Virginia)",
	"us-east-2":     "US East (Ohio)",
	"us-west-1":     "US West (N. California)",
	"us-west-2":     "US West (Oregon)",
	"us-gov-east-1": "AWS GovCloud (US-East)",
	"us-gov-west-1": "AWS GovCloud (US-West)",

	// Canada & Mexico
	"ca-central-1": "Canada (Central)",
	"ca-west-1":    "Canada West (Calgary)",
	"mx-central-1": "Mexico (Central)",

	// South America
	"sa-east-1": "South America (Sao Paulo)",

	// Europe
	"eu-central-1": "EU (Frankfurt)",
	"eu-central-2": "EU (Zurich)",
	"eu-west-1":    "EU (Ireland)",
	"eu-west-2":    "EU (London)",
	"eu-west-3":    "EU (Paris)",
	"eu-south-1":   "EU (Milan)",
	"eu-south-2":   "EU (Spain)",
	"eu-north-1":   "EU (Stockholm)",

	// Africa
	"af-south-1": "Africa (Cape Town)",

	// Middle East
	"me-south-1":   "Middle East (Bahrain)",
	"me-central-1": "Middle East (UAE)",
	"il-central-1": "Israel (Tel Aviv)",

	// Asia Pacific
	"ap-east-1":      "Asia Pacific (Hong Kong)",
	"ap-east-2":      "Asia Pacific (Taipei)",
	"ap-south-1":     "Asia Pacific (Mumbai)",
	"ap-south-2":     "Asia Pacific (Hyderabad)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
	"ap-southeast-3": "Asia Pacific (Jakarta)",
	"ap-southeast-4": "Asia Pacific (Melbourne)",
	"ap-southeast-5": "Asia Pacific (Malaysia)",
	"ap-southeast-6": "Asia Pacific (New Zealand)",
	"ap-southeast-7": "Asia Pacific (Thailand)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-northeast-2": "Asia Pacific (Seoul)",
	"ap-northeast-3": "Asia Pacific (Osaka)",
}

// LocationForRegion returns the Price List location name for a region code
func LocationForRegion(region string) (string, bool) {
	location, ok := regionToLocation[region]
	return location, ok
}

// Regions returns the known region codes in sorted order
func Regions() []string {
	regions := make([]string, 0, len(regionToLocation))
	for r := range regionToLocation {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}
