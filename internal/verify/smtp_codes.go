package verify

// ReplyCategory groups SMTP reply codes by how a prober should react.
type ReplyCategory string

const (
	CategorySuccess          ReplyCategory = "success"
	CategoryTemporaryFailure ReplyCategory = "temporary_failure"
	CategoryPermanentFailure ReplyCategory = "permanent_failure"
	CategoryUnknown          ReplyCategory = "unknown"
)

// ReplyInfo describes an SMTP reply code.
type ReplyInfo struct {
	Code        int
	Category    ReplyCategory
	Description string
}

// Retryable reports whether the reply is a transient failure such as
// greylisting, where asking again later may produce a definitive answer.
func (i ReplyInfo) Retryable() bool {
	return i.Category == CategoryTemporaryFailure
}

var replyDescriptions = map[int]string{
	220: "service ready",
	221: "closing connection",
	250: "requested mail action okay, completed",
	251: "user not local; will forward",
	252: "cannot VRFY user, but will accept message",
	421: "service not available, closing transmission channel",
	450: "mailbox unavailable (often greylisting)",
	451: "local error in processing (often greylisting)",
	452: "insufficient system storage",
	500: "syntax error, command unrecognized",
	501: "syntax error in parameters or arguments",
	502: "command not implemented",
	503: "bad sequence of commands",
	504: "command parameter not implemented",
	521: "domain does not accept mail",
	530: "authentication required",
	550: "mailbox unavailable",
	551: "user not local",
	552: "exceeded storage allocation",
	553: "mailbox name not allowed",
	554: "transaction failed",
}

// DescribeReply returns the handling information for an SMTP reply code.
func DescribeReply(code int) ReplyInfo {
	info := ReplyInfo{Code: code, Description: replyDescriptions[code]}
	switch {
	case code >= 200 && code < 400:
		info.Category = CategorySuccess
	case code >= 400 && code < 500:
		info.Category = CategoryTemporaryFailure
	case code >= 500 && code < 600:
		info.Category = CategoryPermanentFailure
	default:
		info.Category = CategoryUnknown
	}
	if info.Description == "" {
		switch info.Category {
		case CategorySuccess:
			info.Description = "success response"
		case CategoryTemporaryFailure:
			info.Description = "temporary failure"
		case CategoryPermanentFailure:
			info.Description = "permanent failure"
		default:
			info.Description = "unrecognized reply"
		}
	}
	return info
}
