// Package extract locates post results inside X GraphQL payloads and
// normalizes them into models.Post records.
//
// Payloads are decoded into the generic any tree produced by encoding/json.
// The same logical post appears at different depths and under different
// envelope keys depending on the endpoint and the schema revision, so
// nothing here assumes a fixed path:
//
//	var payload any
//	_ = json.Unmarshal(body, &payload)
//	for post := range extract.Posts(payload) {
//		fmt.Println(post.ID, post.Permalink)
//	}
//
// Every resolver is total. Missing or oddly typed fields degrade to empty
// values; only a missing id or legacy payload drops a node.
package extract
