package graphql

const listPostsQuery = `
query listPosts($limit: Int, $nextToken: String) {
  listPosts(limit: $limit, nextToken: $nextToken) {
    items {
      content
      createdAt
      description
      id
      published
      title
      cover_image
    }
    nextToken
  }
}`

const getPostQuery = `
query getPost($id: ID!) {
  getPost(id: $id) {
    content
    createdAt
    description
    id
    published
    title
    cover_image
  }
}`
