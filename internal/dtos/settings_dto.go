package dtos

type ProfileSettings struct {
	Name         string `json:"name"`
	Email        string `json:"email" binding:"omitempty,email"`
	Title        string `json:"title"`
	Skills       string `json:"skills"`
	Experience   string `json:"experience"`
	Education    string `json:"education"`
	ResumeURL    string `json:"resume_url" binding:"omitempty,url"`
	PortfolioURL string `json:"portfolio_url" binding:"omitempty,url"`
	LinkedinURL  string `json:"linkedin_url" binding:"omitempty,url"`
	GithubURL    string `json:"github_url" binding:"omitempty,url"`
}

type PreferenceSettings struct {
	EmailNotifications   bool   `json:"email_notifications"`
	ApplicationReminders bool   `json:"application_reminders"`
	WeeklyReports        bool   `json:"weekly_reports"`
	FollowUpReminders    bool   `json:"follow_up_reminders"`
	InterviewPrep        bool   `json:"interview_prep"`
	Theme                string `json:"theme" binding:"omitempty,oneof=light dark system"`
}

// Settings is both the GET response and the PUT body of /settings.
type Settings struct {
	Profile     ProfileSettings    `json:"profile"`
	Preferences PreferenceSettings `json:"preferences"`
}
