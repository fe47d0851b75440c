package client

// Response categories, by numeric status range.
const (
	TypeInformational = "Informational"
	TypeSuccess       = "Success"
	TypeRedirection   = "Redirection"
	TypeClientError   = "ClientError"
	TypeServerError   = "ServerError"
	TypeUnknown       = "Unknown"
)

// ResponseType classifies a status code.
func ResponseType(code int) string {
	switch {
	case code >= 100 && code <= 104:
		return TypeInformational
	case code >= 200 && code <= 226:
		return TypeSuccess
	case code >= 300 && code <= 308:
		return TypeRedirection
	case code >= 400 && code <= 499:
		return TypeClientError
	case code >= 500 && code <= 526:
		return TypeServerError
	default:
		return TypeUnknown
	}
}

// MessageUnknown is used for every status code missing from the table.
const MessageUnknown = "Something went wrong"

// Reason phrases shown to users. UIs match on these strings, keep them as-is.
var responseMessages = map[int]string{
	400: "Bad Request",
	401: "Unauthorized",
	402: "Payment Required",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Payload Too Large",
	414: "URI Too Long",
	415: "Unsupported Media Type",
	416: "Range Not Satisfiable",
	417: "Expectation Failed",
	418: "I’m a teapot",
	419: "Authentication Timeout",
	421: "Misdirected Request",
	422: "Unprocessable Entity",
	423: "Locked",
	424: "Failed Dependency",
	425: "Too Early",
	426: "Upgrade Required",
	428: "Precondition Required",
	429: "Too Many Requests",
	431: "Request Header Fields Too Large",
	434: "Requested host unavailable",
	449: "Retry With",
	451: "Unavailable For Legal Reasons",
	499: "Client Closed Request",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
	506: "Variant Also Negotiates",
	507: "Insufficient Storage",
	508: "Loop Detected",
	509: "Bandwidth Limit Exceeded",
	510: "Not Extended",
	511: "Network Authentication Required",
	520: "Unknown Error",
	521: "Web Server Is Down",
	522: "Connection Timed Out",
	523: "Origin Is Unreachable",
	524: "A Timeout Occurred",
	525: "SSL Handshake Failed",
	526: "Invalid SSL Certificate",
}

// ResponseMessage returns the human-readable reason for a status code.
func ResponseMessage(code int) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return MessageUnknown
}
