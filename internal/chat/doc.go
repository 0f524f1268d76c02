// Package chat formats advert messages for in-game chat.
//
// Ads and prefixes carry bracketed color tokens such as "[red]" or
// "[default]". Colored rewrites the known ones into the game's native chat
// escapes (Source 2 control bytes); unknown tokens like "[Server]" are left
// exactly as written. ANSI and Strip render native escapes for terminals and
// plain-text sinks.
package chat
