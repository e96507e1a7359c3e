package email

const subjectFollowUpFmt = "Great meeting you, %s"

const subjectFollowUpFallback = "Great meeting you"
