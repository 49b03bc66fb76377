package help

const ColdstartYAML = `# pdfview Quick Start

references:
  url: "https://example.com/report.pdf (loaded as-is)"
  data_uri: "data:application/pdf;base64,... (loaded as-is)"
  local_path: "./report.pdf (read from disk)"
  media: "/media/<sha256>.pdf (resolved against the app base URL)"

base_url_signals:
  override: "--base-url or download_assets_base_url (wins over everything)"
  query: "streamlitUrl parameter of --page-url"
  page: "origin + path of --page-url"
  fallback: "http://<listen_addr>/ when no signal is present"

commands:
  view_url: |
    pdfview view https://example.com/report.pdf

  view_media_in_app: |
    pdfview view /media/<id>.pdf --page-url "https://host/app/Page_Slug"

  zoom_and_scroll: |
    pdfview view report.pdf --zoom-steps 2 --page 5

  explain_resolution: |
    pdfview resolve --explain /media/<id>.pdf --page-url "http://frame/?streamlitUrl=http%3A%2F%2Fapp%3A8501%2F"

  classify_error: |
    pdfview classify "Unexpected server response (403) while retrieving PDF."

  add_and_serve: |
    # Step 1: Store a local file, prints its /media/ reference
    pdfview add report.pdf

    # Step 2: Serve stored media
    pdfview serve --listen 127.0.0.1:8501

    # Step 3: View it through the server
    pdfview view /media/<id>.pdf

  history: |
    pdfview db loads
    pdfview db load <id>

exit_codes:
  0: "all documents opened"
  1: "usage error or some documents failed"
  2: "setup failure or every document failed"
`
