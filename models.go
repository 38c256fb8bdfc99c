package main

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

const usage = `reqecho - HTTP request inspector

GET|POST|PUT|PATCH|DELETE|OPTIONS ...

  /json[/...]   request as JSON (method, url, query, client, headers, body, data)
  /raw          request as a raw HTTP message (client info, headers, body)
  /raw/h        headers only
  /raw/b        body only

  ?__body=...   replaces the request body, for any method
`
