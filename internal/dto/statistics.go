package dto

// NugetStatsResponse summarises a NuGet package.
type NugetStatsResponse struct {
	PackageID      string `json:"packageId"`
	Version        string `json:"version"`
	TotalDownloads int64  `json:"totalDownloads"`
	Versions       int    `json:"versions"`
}

// GitHubStatsResponse summarises a GitHub repository.
type GitHubStatsResponse struct {
	FullName   string `json:"fullName"`
	Stars      int    `json:"stars"`
	Forks      int    `json:"forks"`
	Watchers   int    `json:"watchers"`
	OpenIssues int    `json:"openIssues"`
}
