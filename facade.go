package esdex

// Query dispatches on the argument: a string starts a StringQuery, anything
// else a DslQuery.
func (c *Client) Query(arg any) SearchBuilder {
	if text, ok := arg.(string); ok {
		return c.StringQuery(text)
	}
	return c.DslQuery(arg)
}

// Delete dispatches on the argument: a string id starts a DeleteByID,
// anything else a DeleteByQuery.
func (c *Client) Delete(arg any) DeleteBuilder {
	if id, ok := arg.(string); ok {
		return c.DeleteByID(id)
	}
	return c.DeleteByQuery(arg)
}
